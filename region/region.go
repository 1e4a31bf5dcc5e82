// Package region describes axis-aligned rectangular integration domains.
package region

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidRegion is returned for empty regions and for bounds that are
// reversed or not finite.
var ErrInvalidRegion = errors.New("region: invalid region")

// Bounds is the closed interval [Lower, Upper] of one dimension.
type Bounds struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Length returns Upper - Lower.
func (b Bounds) Length() float64 {
	return b.Upper - b.Lower
}

// Contains reports whether v lies in [Lower, Upper].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// Region is an ordered list of bounds, one per dimension. It is owned by the
// caller and never modified by this module.
type Region []Bounds

// Point is one coordinate per region dimension.
type Point []float64

// New builds a region from (lower, upper) pairs.
func New(pairs ...[2]float64) Region {
	r := make(Region, len(pairs))
	for i, p := range pairs {
		r[i] = Bounds{Lower: p[0], Upper: p[1]}
	}
	return r
}

// Dims returns the dimensionality of the region.
func (r Region) Dims() int {
	return len(r)
}

// Volume is the product of the bound lengths over all dimensions.
func (r Region) Volume() float64 {
	vol := 1.0
	for _, b := range r {
		vol *= b.Length()
	}
	return vol
}

// Validate checks that the region has at least one dimension and that every
// dimension satisfies lower <= upper with finite bounds.
func (r Region) Validate() error {
	if len(r) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrInvalidRegion)
	}
	for i, b := range r {
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || math.IsInf(b.Lower, 0) || math.IsInf(b.Upper, 0) {
			return fmt.Errorf("%w: dimension %d has non-finite bounds [%v, %v]", ErrInvalidRegion, i, b.Lower, b.Upper)
		}
		if b.Lower > b.Upper {
			return fmt.Errorf("%w: dimension %d has lower %v > upper %v", ErrInvalidRegion, i, b.Lower, b.Upper)
		}
	}
	return nil
}

// Contains reports whether p has the region's dimensionality and lies inside
// every bound.
func (r Region) Contains(p Point) bool {
	if len(p) != len(r) {
		return false
	}
	for i, b := range r {
		if !b.Contains(p[i]) {
			return false
		}
	}
	return true
}

// String formats the region in the syntax accepted by Parse.
func (r Region) String() string {
	parts := make([]string, len(r))
	for i, b := range r {
		parts[i] = strconv.FormatFloat(b.Lower, 'g', -1, 64) + ":" + strconv.FormatFloat(b.Upper, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Parse reads a region written as comma separated lower:upper pairs,
// e.g. "0:1,-1:1". The result is validated.
func Parse(s string) (Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty region", ErrInvalidRegion)
	}

	fields := strings.Split(s, ",")
	r := make(Region, 0, len(fields))
	for i, field := range fields {
		lo, hi, ok := strings.Cut(strings.TrimSpace(field), ":")
		if !ok {
			return nil, fmt.Errorf("%w: dimension %d %q is not lower:upper", ErrInvalidRegion, i, field)
		}
		lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: dimension %d lower bound: %v", ErrInvalidRegion, i, err)
		}
		upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: dimension %d upper bound: %v", ErrInvalidRegion, i, err)
		}
		r = append(r, Bounds{Lower: lower, Upper: upper})
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
