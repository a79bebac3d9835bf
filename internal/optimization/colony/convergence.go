package colony

import "math"

// convergence counts consecutive iterations in which the global best moved
// by less than threshold.
type convergence struct {
	threshold float64
	rounds    int
	streak    int
}

func newConvergence(threshold float64, rounds int) convergence {
	return convergence{threshold: threshold, rounds: rounds}
}

// observe records one iteration's improvement and reports whether the run
// has converged.
func (c *convergence) observe(delta float64) bool {
	if math.Abs(delta) < c.threshold {
		c.streak++
	} else {
		c.streak = 0
	}
	return c.streak >= c.rounds
}

func (c *convergence) reset() { c.streak = 0 }
