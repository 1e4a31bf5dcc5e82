// Package integrator estimates definite integrals over rectangular regions
// with plain Monte Carlo sampling.
//
// A run draws N points uniformly from the region, evaluates the target
// function at each one and keeps only the running sums of the values and of
// their squares. The estimate is volume times the sample mean; the error bar
// is volume times the sample variance over sqrt(N).
//
// Usage:
//
//	r := region.New([2]float64{0, 1}, [2]float64{0, 2})
//	res, err := integrator.Estimate(ctx, r, integrator.Pure(func(p region.Point) float64 {
//		return p[0] * p[1]
//	}), 100000)
//
// Results differ between calls unless the estimator is built WithSeed or
// WithSource.
package integrator
