package objective

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogMinima(t *testing.T) {
	for _, fn := range All() {
		t.Run(fn.Name, func(t *testing.T) {
			require.NotEmpty(t, fn.Minimizers)
			require.Len(t, fn.Bounds, 2)

			for _, m := range fn.Minimizers {
				for d, b := range fn.Bounds {
					assert.GreaterOrEqual(t, m[d], b[0])
					assert.LessOrEqual(t, m[d], b[1])
				}
				assert.InDelta(t, fn.Minimum, fn.Eval(m[0], m[1]), 1e-5, "at %v", m)

				v, err := fn.Objective()(m)
				require.NoError(t, err)
				assert.InDelta(t, fn.Minimum, v, 1e-5)
			}

			// The minimum is global: a coarse grid never beats it.
			bx, by := fn.Bounds[0], fn.Bounds[1]
			for i := 0; i <= 20; i++ {
				for j := 0; j <= 20; j++ {
					x := bx[0] + float64(i)*(bx[1]-bx[0])/20
					y := by[0] + float64(j)*(by[1]-by[0])/20
					assert.GreaterOrEqual(t, fn.Eval(x, y), fn.Minimum-1e-9)
				}
			}
		})
	}
}

func TestLookup(t *testing.T) {
	fn, err := Lookup("booth")
	require.NoError(t, err)
	assert.Equal(t, "booth", fn.Name)
	assert.Equal(t, 0.0, fn.Eval(1, 3))

	fn.Bounds[0] = [2]float64{0, 0}
	again, err := Lookup("booth")
	require.NoError(t, err)
	assert.Equal(t, [2]float64{-10, 10}, again.Bounds[0], "lookups must not share bounds")

	_, err = Lookup("ackley")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknown))
}

func TestNames(t *testing.T) {
	names := Names()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Subset(t, names, []string{"sphere", "shifted_sphere", "booth", "rosenbrock", "beale", "branin", "himmelblau"})
	assert.Len(t, All(), len(names))
}
