package integrator

import (
	"go.uber.org/zap"

	"mc-integrator/random"
	"mc-integrator/sampler"
)

// Option configures an Estimator.
type Option func(*Estimator)

// WithSource sets the randomness source used for sampling.
func WithSource(src sampler.Source) Option {
	return func(e *Estimator) { e.src = src }
}

// WithSeed makes the estimator draw from a reproducible stream.
func WithSeed(seed uint64) Option {
	return func(e *Estimator) { e.src = random.New(seed) }
}

// WithPrecision sets the number of fractional digits sampled coordinates are
// rounded to. A negative value disables rounding.
func WithPrecision(digits int) Option {
	return func(e *Estimator) { e.precision = digits }
}

// WithoutRounding samples unrounded coordinates.
func WithoutRounding() Option {
	return WithPrecision(sampler.NoRounding)
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder reports every finished or failed run to r.
func WithRecorder(r Recorder) Option {
	return func(e *Estimator) { e.recorder = r }
}
