// Package sampler draws points uniformly at random from a region.
//
// Coordinates are rounded to a fixed number of fractional digits, two by
// default. Rounding bounds the number of distinct points a run can visit,
// which keeps repeated evaluations of expensive functions cheap, at the cost
// of a small bias away from continuous uniformity. Use NoRounding to draw
// unrounded coordinates.
package sampler

import (
	"math"

	"mc-integrator/region"
)

// DefaultPrecision is the number of fractional digits kept by default.
const DefaultPrecision = 2

// NoRounding disables coordinate rounding when used as a precision.
const NoRounding = -1

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Sampler draws points with its own source. It is not safe for concurrent use
// unless the source is.
type Sampler struct {
	src       Source
	precision int
}

// New creates a sampler. A negative precision disables rounding.
func New(src Source, precision int) *Sampler {
	return &Sampler{src: src, precision: precision}
}

// Precision returns the number of fractional digits kept, or NoRounding.
func (s *Sampler) Precision() int {
	if s.precision < 0 {
		return NoRounding
	}
	return s.precision
}

// Uniform draws one point from r.
func (s *Sampler) Uniform(r region.Region) region.Point {
	return Uniform(s.src, r, s.precision)
}

// Uniform draws each coordinate independently from its [lower, upper]
// interval and rounds it to precision fractional digits. The rounded value is
// clamped back into the interval.
func Uniform(src Source, r region.Region, precision int) region.Point {
	p := make(region.Point, len(r))
	for i, b := range r {
		v := b.Lower + (b.Upper-b.Lower)*src.Float64()
		if precision >= 0 {
			v = clamp(Round(v, precision), b.Lower, b.Upper)
		}
		p[i] = v
	}
	return p
}

// Round rounds v to digits fractional digits, ties to even. Values are
// returned unchanged when digits exceed what a float64 can represent.
func Round(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	if math.IsInf(scale, 0) {
		return v
	}
	scaled := v * scale
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.RoundToEven(scaled) / scale
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
