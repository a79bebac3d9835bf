// Package objective provides a catalog of named two-variable test functions
// with their usual search bounds and known global minima.
package objective

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/optimize/functions"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

// ErrUnknown is returned by Lookup for names that are not in the catalog.
var ErrUnknown = errors.New("unknown objective")

// Function describes one catalog entry.
type Function struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Bounds      [][2]float64 `json:"bounds"`
	// Minimum is the known global minimum value.
	Minimum float64 `json:"minimum"`
	// Minimizers lists the points attaining Minimum.
	Minimizers [][]float64 `json:"minimizers"`

	f func(x, y float64) float64
}

// Objective returns the function as an optimizer objective.
func (fn Function) Objective() optimization.ObjectiveFunction {
	return optimization.Objective2D(fn.f)
}

// Eval evaluates the function at (x, y).
func (fn Function) Eval(x, y float64) float64 { return fn.f(x, y) }

// gonum2D adapts a gonum test function defined on a 2-vector.
func gonum2D(f func([]float64) float64) func(x, y float64) float64 {
	return func(x, y float64) float64 { return f([]float64{x, y}) }
}

var catalog = map[string]Function{
	"sphere": {
		Name:        "sphere",
		Description: "x^2 + y^2",
		Bounds:      [][2]float64{{-3, 3}, {-3, 3}},
		Minimizers:  [][]float64{{0, 0}},
		f:           func(x, y float64) float64 { return x*x + y*y },
	},
	"shifted_sphere": {
		Name:        "shifted_sphere",
		Description: "(x-2)^2 + (y+1)^2",
		Bounds:      [][2]float64{{-10, 10}, {-10, 10}},
		Minimizers:  [][]float64{{2, -1}},
		f: func(x, y float64) float64 {
			return (x-2)*(x-2) + (y+1)*(y+1)
		},
	},
	"booth": {
		Name:        "booth",
		Description: "(x + 2y - 7)^2 + (2x + y - 5)^2",
		Bounds:      [][2]float64{{-10, 10}, {-10, 10}},
		Minimizers:  [][]float64{{1, 3}},
		f: func(x, y float64) float64 {
			a := x + 2*y - 7
			b := 2*x + y - 5
			return a*a + b*b
		},
	},
	"himmelblau": {
		Name:        "himmelblau",
		Description: "(x^2 + y - 11)^2 + (x + y^2 - 7)^2",
		Bounds:      [][2]float64{{-5, 5}, {-5, 5}},
		Minimizers: [][]float64{
			{3, 2},
			{-2.805118, 3.131312},
			{-3.779310, -3.283186},
			{3.584428, -1.848126},
		},
		f: func(x, y float64) float64 {
			a := x*x + y - 11
			b := x + y*y - 7
			return a*a + b*b
		},
	},
	"rosenbrock": {
		Name:        "rosenbrock",
		Description: "100(y - x^2)^2 + (1 - x)^2",
		Bounds:      [][2]float64{{-2, 2}, {-1, 3}},
		Minimizers:  [][]float64{{1, 1}},
		f:           gonum2D(functions.ExtendedRosenbrock{}.Func),
	},
	"beale": {
		Name:        "beale",
		Description: "(1.5 - x + xy)^2 + (2.25 - x + xy^2)^2 + (2.625 - x + xy^3)^2",
		Bounds:      [][2]float64{{-4.5, 4.5}, {-4.5, 4.5}},
		Minimizers:  [][]float64{{3, 0.5}},
		f:           gonum2D(functions.Beale{}.Func),
	},
	"branin": {
		Name:        "branin",
		Description: "Branin-Hoo function",
		Bounds:      [][2]float64{{-5, 10}, {0, 15}},
		Minimum:     0.397887357729739,
		Minimizers: [][]float64{
			{-math.Pi, 12.275},
			{math.Pi, 2.275},
			{3 * math.Pi, 2.475},
		},
		f: gonum2D(functions.BraninHoo{}.Func),
	},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Function, error) {
	fn, ok := catalog[name]
	if !ok {
		return Function{}, fmt.Errorf("%w %q (known: %v)", ErrUnknown, name, Names())
	}
	fn.Bounds = append([][2]float64(nil), fn.Bounds...)
	return fn, nil
}

// Names returns the catalog names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every catalog entry sorted by name.
func All() []Function {
	names := Names()
	all := make([]Function, len(names))
	for i, name := range names {
		all[i], _ = Lookup(name)
	}
	return all
}
