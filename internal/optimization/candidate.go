package optimization

import (
	"math"
	"time"
)

// Candidate is an evaluated point. The position is copied on the way in and
// on the way out, so a Candidate never changes after Evaluate returns it.
type Candidate struct {
	pos   []float64
	Value float64
}

// NewCandidate records an already known value for pos.
func NewCandidate(pos []float64, value float64) Candidate {
	return Candidate{pos: append([]float64(nil), pos...), Value: value}
}

// Evaluate calls f at pos and wraps the outcome.
func Evaluate(f ObjectiveFunction, pos []float64) (Candidate, error) {
	v, err := f(pos)
	if err != nil {
		return Candidate{}, &objectiveError{point: append([]float64(nil), pos...), err: err}
	}
	return NewCandidate(pos, v), nil
}

// Position returns a copy of the coordinates.
func (c Candidate) Position() []float64 { return append([]float64(nil), c.pos...) }

// At returns coordinate i.
func (c Candidate) At(i int) float64 { return c.pos[i] }

// Len returns the number of coordinates.
func (c Candidate) Len() int { return len(c.pos) }

// IsZero reports whether the candidate was never evaluated.
func (c Candidate) IsZero() bool { return c.pos == nil }

// Better reports whether c strictly improves on other. A NaN value never
// improves on anything, and anything that is not NaN improves on NaN.
func (c Candidate) Better(other Candidate) bool {
	if math.IsNaN(other.Value) {
		return !math.IsNaN(c.Value)
	}
	return c.Value < other.Value
}

// BestState tracks the incumbent best candidate and the value it replaced.
type BestState struct {
	Best     Candidate
	Previous float64
}

// NewBestState starts tracking from an initial candidate.
func NewBestState(initial Candidate) BestState {
	return BestState{Best: initial, Previous: initial.Value}
}

// Offer replaces the incumbent when c is strictly better. The recorded best
// never regresses.
func (b *BestState) Offer(c Candidate) bool {
	if b.Best.IsZero() {
		b.Best, b.Previous = c, c.Value
		return true
	}
	if !c.Better(b.Best) {
		return false
	}
	b.Previous = b.Best.Value
	b.Best = c
	return true
}

// Delta returns how much the last replacement improved the best value.
func (b BestState) Delta() float64 {
	if math.IsInf(b.Previous, 1) && math.IsInf(b.Best.Value, 1) {
		return 0
	}
	return b.Previous - b.Best.Value
}

// Trace is an append-only record of best values, one per iteration, plus
// optional elapsed-time snapshots.
//
// Values[0] is the best value after initialization. When elapsed times are
// recorded, Elapsed[i] belongs to Values[i+1], so len(Elapsed) == len(Values)-1.
type Trace struct {
	Values  []float64
	Elapsed []time.Duration
}

// NewTrace preallocates room for capacity snapshots.
func NewTrace(capacity int) Trace {
	if capacity < 1 {
		capacity = 1
	}
	return Trace{Values: make([]float64, 0, capacity)}
}

// Record appends a best-value snapshot.
func (t *Trace) Record(v float64) { t.Values = append(t.Values, v) }

// RecordAt appends a best-value snapshot with its elapsed time.
func (t *Trace) RecordAt(v float64, elapsed time.Duration) {
	t.Values = append(t.Values, v)
	t.Elapsed = append(t.Elapsed, elapsed)
}

// Len returns the number of value snapshots.
func (t Trace) Len() int { return len(t.Values) }

// Final returns the last recorded value, or +Inf for an empty trace.
func (t Trace) Final() float64 {
	if len(t.Values) == 0 {
		return math.Inf(1)
	}
	return t.Values[len(t.Values)-1]
}
