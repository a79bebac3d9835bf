package colony

import (
	"math"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

// agent is one food-source worker. Its identity is its index in the
// population and survives the whole run; only its candidate is replaced.
type agent struct {
	food optimization.Candidate
	// trials counts consecutive attempts that failed to improve food.
	trials int
}

type population []agent

// values returns the current objective value of every agent in index order.
func (p population) values() []float64 {
	v := make([]float64, len(p))
	for i := range p {
		v[i] = p[i].food.Value
	}
	return v
}

// best returns the index of the agent holding the lowest value.
func (p population) best() int {
	idx := 0
	for i := 1; i < len(p); i++ {
		if p[i].food.Better(p[idx].food) {
			idx = i
		}
	}
	return idx
}

// offer replaces agent i's candidate when c improves on it, resetting the
// trial counter; otherwise the counter grows.
func (p population) offer(i int, c optimization.Candidate) bool {
	if c.Better(p[i].food) {
		p[i].food = c
		p[i].trials = 0
		return true
	}
	p[i].trials++
	return false
}

// replace installs c unconditionally and resets the trial counter.
func (p population) replace(i int, c optimization.Candidate) {
	p[i].food = c
	p[i].trials = 0
}

// anchor returns 0 projected onto iv, the point phase-two references are
// drawn towards.
func anchor(iv optimization.Interval) float64 {
	return iv.Clamp(0)
}

// between draws uniformly between a and b in either order.
func between(a, b, u float64) float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	return lo + u*(hi-lo)
}
