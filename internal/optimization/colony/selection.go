package colony

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Weighting turns objective values into selection weights. Higher weights
// mark better (lower-valued) agents.
type Weighting int

const (
	// FitnessWeighting uses 1/(1+v) for v >= 0 and 1+|v| for v < 0. It is
	// defined for every finite value.
	FitnessWeighting Weighting = iota
	// RankWeighting gives the best agent weight n and the worst weight 1.
	RankWeighting
	// InverseWeighting uses 1/v. Zero or negative values make it degenerate.
	InverseWeighting
)

// String returns the scheme's configuration name.
func (w Weighting) String() string {
	switch w {
	case FitnessWeighting:
		return "fitness"
	case RankWeighting:
		return "rank"
	case InverseWeighting:
		return "inverse"
	default:
		return fmt.Sprintf("weighting(%d)", int(w))
	}
}

// ParseWeighting maps a configuration name to a scheme.
func ParseWeighting(name string) (Weighting, error) {
	switch name {
	case "", "fitness":
		return FitnessWeighting, nil
	case "rank":
		return RankWeighting, nil
	case "inverse":
		return InverseWeighting, nil
	default:
		return 0, fmt.Errorf("unknown weighting %q", name)
	}
}

// weights computes normalized selection weights for values. When the scheme
// cannot produce a positive finite total it returns uniform weights and
// degenerate=true.
func weights(scheme Weighting, values []float64) (w []float64, degenerate bool) {
	n := len(values)
	w = make([]float64, n)
	if n == 0 {
		return w, false
	}

	switch scheme {
	case RankWeighting:
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		// NaN sorts last so it gets the smallest weight.
		sort.SliceStable(idx, func(a, b int) bool {
			va, vb := values[idx[a]], values[idx[b]]
			if math.IsNaN(vb) {
				return !math.IsNaN(va)
			}
			return va < vb
		})
		for rank, i := range idx {
			w[i] = float64(n - rank)
		}
	case InverseWeighting:
		for i, v := range values {
			w[i] = 1 / v
		}
	default:
		for i, v := range values {
			if v >= 0 {
				w[i] = 1 / (1 + v)
			} else {
				w[i] = 1 + math.Abs(v)
			}
		}
	}

	sum := 0.0
	for _, x := range w {
		if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return uniform(n), true
		}
		sum += x
	}
	if sum <= 0 || math.IsInf(sum, 0) {
		return uniform(n), true
	}
	floats.Scale(1/sum, w)
	return w, false
}

func uniform(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// reselectProbabilities scales weights so the best agent is always
// reselected and the others in proportion to their weight.
func reselectProbabilities(w []float64) []float64 {
	q := make([]float64, len(w))
	if len(w) == 0 {
		return q
	}
	top := floats.Max(w)
	if top <= 0 {
		for i := range q {
			q[i] = 1
		}
		return q
	}
	for i, x := range w {
		q[i] = x / top
	}
	return q
}
