package annealing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

func TestNewGeometricSchedule(t *testing.T) {
	tests := []struct {
		name      string
		ti, tf    float64
		maxIter   int
		expectErr bool
	}{
		{name: "defaults", ti: 1, tf: 0.1, maxIter: 1000},
		{name: "wide range", ti: 100, tf: 0.01, maxIter: 10000},
		{name: "single step", ti: 2, tf: 1, maxIter: 1},
		{name: "initial equals final", ti: 1, tf: 1, maxIter: 10, expectErr: true},
		{name: "initial below final", ti: 0.1, tf: 1, maxIter: 10, expectErr: true},
		{name: "zero final", ti: 1, tf: 0, maxIter: 10, expectErr: true},
		{name: "negative final", ti: 1, tf: -1, maxIter: 10, expectErr: true},
		{name: "zero initial", ti: 0, tf: 0.1, maxIter: 10, expectErr: true},
		{name: "zero iterations", ti: 1, tf: 0.1, maxIter: 0, expectErr: true},
		{name: "nan temperature", ti: math.NaN(), tf: 0.1, maxIter: 10, expectErr: true},
		{name: "infinite temperature", ti: math.Inf(1), tf: 0.1, maxIter: 10, expectErr: true},
		{name: "rate underflow", ti: 1 + 1e-15, tf: 1, maxIter: 1 << 30, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewGeometricSchedule(tt.ti, tt.tf, tt.maxIter)
			if tt.expectErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, optimization.ErrInvalidConfig), "got %v", err)
				return
			}
			require.NoError(t, err)

			want := 1 - math.Pow(tt.tf/tt.ti, 1/float64(tt.maxIter))
			assert.InDelta(t, want, s.Rate, 1e-12)
			assert.Greater(t, s.Rate, 0.0)
			assert.Less(t, s.Rate, 1.0)
			assert.InEpsilon(t, tt.tf, s.At(tt.maxIter), 1e-9)
		})
	}
}

func TestScheduleStepping(t *testing.T) {
	s, err := NewGeometricSchedule(1, 0.1, 1000)
	require.NoError(t, err)

	temp := s.Initial
	steps := 0
	for !s.Done(temp) {
		next := s.Next(temp)
		require.Less(t, next, temp)
		temp = next
		steps++
	}
	assert.GreaterOrEqual(t, steps, 1000-1)
	assert.LessOrEqual(t, steps, 1000+1)
	assert.LessOrEqual(t, temp, s.Final)
}
