package optimization

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testObjectiveFunc is a simple quadratic objective function for testing
func testObjectiveFunc(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum, nil
}

func TestCandidateIsImmutable(t *testing.T) {
	pos := []float64{1, 2}
	c, err := Evaluate(testObjectiveFunc, pos)
	require.NoError(t, err)
	assert.Equal(t, 5.0, c.Value)

	pos[0] = 100
	assert.Equal(t, 1.0, c.At(0), "caller mutation leaked into candidate")

	out := c.Position()
	out[1] = 100
	assert.Equal(t, 2.0, c.At(1), "Position must return a copy")
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.IsZero())
	assert.True(t, Candidate{}.IsZero())
}

func TestEvaluatePropagatesObjectiveError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Evaluate(func([]float64) (float64, error) { return 0, boom }, []float64{1, 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrObjective))
	assert.True(t, errors.Is(err, boom))
}

func TestCandidateBetter(t *testing.T) {
	nan := NewCandidate([]float64{0}, math.NaN())
	one := NewCandidate([]float64{0}, 1)
	two := NewCandidate([]float64{0}, 2)

	assert.True(t, one.Better(two))
	assert.False(t, two.Better(one))
	assert.False(t, one.Better(one), "equal values are not an improvement")
	assert.True(t, one.Better(nan))
	assert.False(t, nan.Better(one))
	assert.False(t, nan.Better(nan))
}

func TestBestStateNeverRegresses(t *testing.T) {
	best := NewBestState(NewCandidate([]float64{0, 0}, 10))

	values := []float64{12, 8, 9, 8, 3, 3.5, 100, 1}
	expected := []float64{10, 8, 8, 8, 3, 3, 3, 1}
	for i, v := range values {
		best.Offer(NewCandidate([]float64{float64(i), 0}, v))
		assert.Equal(t, expected[i], best.Best.Value, "after offering %v", v)
	}
	assert.Equal(t, 3.0, best.Previous)
	assert.InDelta(t, 2.0, best.Delta(), 1e-12)
}

func TestBestStateFromZero(t *testing.T) {
	var best BestState
	assert.True(t, best.Offer(NewCandidate([]float64{1}, 4)))
	assert.Equal(t, 4.0, best.Best.Value)
	assert.Equal(t, 0.0, best.Delta())
}

func TestTraceElapsedConvention(t *testing.T) {
	trace := NewTrace(0)
	trace.Record(5)
	trace.RecordAt(4, 10*time.Millisecond)
	trace.RecordAt(4, 20*time.Millisecond)

	assert.Equal(t, 3, trace.Len())
	assert.Len(t, trace.Elapsed, trace.Len()-1)
	assert.Equal(t, 4.0, trace.Final())
	assert.True(t, math.IsInf(Trace{}.Final(), 1))
}

func TestErrorFormatting(t *testing.T) {
	err := ConfigErrorf("annealing", "bad %s", "value")
	assert.Equal(t, "annealing: configure: bad value: invalid configuration", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	wrapped := WrapError(errors.New("inner"), "outer").WithComponent("colony").WithOperation("Run")
	assert.Equal(t, "colony: Run: outer: inner", wrapped.Error())
	assert.Nil(t, WrapError(nil, "nothing"))

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}
