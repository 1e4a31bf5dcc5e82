// Package stats holds the arithmetic behind an estimate: the running
// accumulator, the unbiased sample variance and the volume scaled error bar.
package stats

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientSamples is returned when a sample count is too small for
// the requested statistic.
var ErrInsufficientSamples = errors.New("stats: insufficient samples")

// Accumulator keeps the running mean and sum of squared deviations of one
// estimation run (Welford's method). Only two scalars and a count are stored
// regardless of the number of samples. A constant stream keeps its mean
// exactly and a variance of zero.
type Accumulator struct {
	N    int
	mean float64
	m2   float64
}

// Add records one function value.
func (a *Accumulator) Add(v float64) {
	a.N++
	delta := v - a.mean
	a.mean += delta / float64(a.N)
	a.m2 += delta * (v - a.mean)
}

// Mean returns the mean of the recorded values.
func (a Accumulator) Mean() (float64, error) {
	if a.N < 1 {
		return 0, fmt.Errorf("%w: mean needs at least 1 sample, got %d", ErrInsufficientSamples, a.N)
	}
	return a.mean, nil
}

// Variance returns the unbiased sample variance of the recorded values.
func (a Accumulator) Variance() (float64, error) {
	if a.N < 2 {
		return 0, fmt.Errorf("%w: variance needs at least 2 samples, got %d", ErrInsufficientSamples, a.N)
	}
	v := a.m2 / float64(a.N-1)
	if v < 0 {
		return 0, nil
	}
	return v, nil
}

// SampleVariance computes the unbiased sample variance from the sum of
// values, the sum of squared values and the sample count, for callers that
// only kept the plain sums:
//
//	mean     = sumF / n
//	variance = (sumSq - 2*mean*sumF + n*mean^2) / (n - 1)
//
// Cancellation can make the expanded form slightly negative for near
// constant samples; such results are clamped to zero.
func SampleVariance(sumF, sumSq float64, n int) (float64, error) {
	if n < 2 {
		return 0, fmt.Errorf("%w: variance needs at least 2 samples, got %d", ErrInsufficientSamples, n)
	}
	N := float64(n)
	avg := sumF / N
	sumErrors := sumSq - 2*avg*sumF + N*avg*avg

	v := sumErrors / (N - 1)
	if v < 0 {
		return 0, nil
	}
	return v, nil
}

// ErrorBar scales the sample variance by the region volume and divides by
// the square root of the sample count.
func ErrorBar(volume, variance float64, n int) (float64, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: error bar needs at least 1 sample, got %d", ErrInsufficientSamples, n)
	}
	return volume * variance / math.Sqrt(float64(n)), nil
}
