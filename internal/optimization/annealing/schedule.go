package annealing

import (
	"math"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

// Schedule is a geometric cooling schedule: T <- T*(1-Rate).
type Schedule struct {
	Initial float64
	Final   float64
	// Rate is the fractional decrement ε = 1 - (Final/Initial)^(1/steps).
	Rate float64
	// Steps is the iteration budget the rate was derived from.
	Steps int
}

// NewGeometricSchedule derives the cooling rate that takes the temperature
// from ti down to tf in maxIter multiplications.
func NewGeometricSchedule(ti, tf float64, maxIter int) (Schedule, error) {
	switch {
	case math.IsNaN(ti) || math.IsNaN(tf) || math.IsInf(ti, 0) || math.IsInf(tf, 0):
		return Schedule{}, optimization.ConfigErrorf(component, "temperatures must be finite, got Ti=%v Tf=%v", ti, tf)
	case tf <= 0:
		return Schedule{}, optimization.ConfigErrorf(component, "final temperature must be positive, got %v", tf)
	case ti <= tf:
		return Schedule{}, optimization.ConfigErrorf(component, "initial temperature %v must exceed final temperature %v", ti, tf)
	case maxIter < 1:
		return Schedule{}, optimization.ConfigErrorf(component, "max iterations must be at least 1, got %d", maxIter)
	}

	// 1-(tf/ti)^(1/n) written with Expm1 to keep precision when the ratio is
	// close to one.
	rate := -math.Expm1(math.Log(tf/ti) / float64(maxIter))
	if rate <= 0 || 1-rate >= 1 {
		return Schedule{}, optimization.ConfigErrorf(component,
			"cooling rate %v underflows for Ti=%v Tf=%v over %d iterations", rate, ti, tf, maxIter)
	}

	return Schedule{Initial: ti, Final: tf, Rate: rate, Steps: maxIter}, nil
}

// Next returns the temperature one cooling step after t.
func (s Schedule) Next(t float64) float64 { return t * (1 - s.Rate) }

// Done reports whether t has reached the final temperature.
func (s Schedule) Done(t float64) bool { return t <= s.Final }

// At returns the closed-form temperature after n cooling steps.
func (s Schedule) At(n int) float64 {
	return s.Initial * math.Pow(1-s.Rate, float64(n))
}
