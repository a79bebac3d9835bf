package optimization

import (
	"math"
	"math/rand"
)

// Interval is a closed range [Lower, Upper].
type Interval struct {
	Lower float64
	Upper float64
}

// NewInterval returns the interval spanned by a and b in either order.
func NewInterval(a, b float64) Interval {
	return Interval{Lower: math.Min(a, b), Upper: math.Max(a, b)}
}

// Width returns Upper - Lower.
func (iv Interval) Width() float64 { return iv.Upper - iv.Lower }

// Clamp projects v onto the interval.
func (iv Interval) Clamp(v float64) float64 {
	return math.Max(iv.Lower, math.Min(v, iv.Upper))
}

// Sample draws uniformly from the interval.
func (iv Interval) Sample(rng *rand.Rand) float64 {
	return iv.Lower + rng.Float64()*iv.Width()
}

// SearchSpace is a box made of one independent interval per dimension.
type SearchSpace []Interval

// NewSearchSpace builds a box from [min, max] pairs. Pair order is not
// significant. At least one dimension with finite bounds is required.
func NewSearchSpace(bounds ...[2]float64) (SearchSpace, error) {
	if len(bounds) == 0 {
		return nil, ConfigErrorf("search_space", "at least one dimension is required")
	}
	space := make(SearchSpace, len(bounds))
	for i, b := range bounds {
		for _, v := range b {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, ConfigErrorf("search_space", "bounds for dimension %d must be finite, got %v", i, b)
			}
		}
		space[i] = NewInterval(b[0], b[1])
	}
	return space, nil
}

// Dims returns the number of dimensions.
func (s SearchSpace) Dims() int { return len(s) }

// Sample draws a point uniformly from the box.
func (s SearchSpace) Sample(rng *rand.Rand) []float64 {
	p := make([]float64, len(s))
	for i, iv := range s {
		p[i] = iv.Sample(rng)
	}
	return p
}

// Clamp projects p onto the box in place and returns it.
func (s SearchSpace) Clamp(p []float64) []float64 {
	for i, iv := range s {
		p[i] = iv.Clamp(p[i])
	}
	return p
}

// Contains reports whether p lies inside the box, boundaries included.
func (s SearchSpace) Contains(p []float64) bool {
	if len(p) != len(s) {
		return false
	}
	for i, iv := range s {
		if p[i] < iv.Lower || p[i] > iv.Upper {
			return false
		}
	}
	return true
}

// Bounds returns the box as [min, max] pairs.
func (s SearchSpace) Bounds() [][2]float64 {
	out := make([][2]float64, len(s))
	for i, iv := range s {
		out[i] = [2]float64{iv.Lower, iv.Upper}
	}
	return out
}
