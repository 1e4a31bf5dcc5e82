package integrator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mc-integrator/random"
	"mc-integrator/region"
	"mc-integrator/sampler"
	"mc-integrator/stats"
)

// cancelCheckInterval is how many samples are drawn between context checks.
const cancelCheckInterval = 1024

// Func is the target function. It receives a point with one coordinate per
// region dimension and must not retain or modify it. It should be free of
// side effects so that seeded runs are reproducible.
type Func func(p region.Point) (float64, error)

// Pure adapts a function that cannot fail.
func Pure(fn func(p region.Point) float64) Func {
	return func(p region.Point) (float64, error) {
		return fn(p), nil
	}
}

// Result is the outcome of one estimation run.
type Result struct {
	ID       string        `json:"id"`
	Value    float64       `json:"value"`
	Error    float64       `json:"error"`
	Samples  int           `json:"samples"`
	Volume   float64       `json:"volume"`
	Mean     float64       `json:"mean"`
	Variance float64       `json:"variance"`
	Duration time.Duration `json:"duration"`
}

// Recorder observes estimation runs.
type Recorder interface {
	RecordEstimate(res Result)
	RecordFailure(err error, samples int, elapsed time.Duration)
}

// Estimator runs Monte Carlo estimations. It owns its randomness source and
// is not safe for concurrent use.
type Estimator struct {
	src       sampler.Source
	precision int
	logger    *zap.Logger
	recorder  Recorder
}

// New creates an estimator. Without WithSource or WithSeed it draws from a
// freshly seeded stream.
func New(opts ...Option) *Estimator {
	e := &Estimator{
		precision: sampler.DefaultPrecision,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.src == nil {
		e.src = random.New(random.MustSeed())
	}
	return e
}

// Estimate integrates f over r using New with no options.
func Estimate(ctx context.Context, r region.Region, f Func, samples int) (Result, error) {
	return New().Estimate(ctx, r, f, samples)
}

// Estimate draws samples points from r, evaluates f at each and returns the
// volume scaled mean with its error bar.
func (e *Estimator) Estimate(ctx context.Context, r region.Region, f Func, samples int) (Result, error) {
	if samples < 2 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidSampleCount, samples)
	}
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	if f == nil {
		return Result{}, ErrNilFunction
	}

	id := uuid.NewString()
	logger := e.logger.With(zap.String("run_id", id))
	s := sampler.New(e.src, e.precision)
	logger.Debug("estimation started",
		zap.Int("samples", samples),
		zap.Int("dims", r.Dims()),
		zap.Int("precision", s.Precision()))

	start := time.Now()
	vol := r.Volume()

	var acc stats.Accumulator
	for i := 0; i < samples; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, e.fail(logger, fmt.Errorf("integrator: estimation cancelled after %d samples: %w", i, err), i, start)
			}
		}

		value, err := f(s.Uniform(r))
		if err != nil {
			return Result{}, e.fail(logger, &EvaluationError{Sample: i, Err: err}, i, start)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return Result{}, e.fail(logger, &EvaluationError{Sample: i, Err: fmt.Errorf("%w: %v", ErrNonFiniteValue, value)}, i, start)
		}
		acc.Add(value)
	}

	mean, err := acc.Mean()
	if err != nil {
		return Result{}, e.fail(logger, err, samples, start)
	}
	variance, err := acc.Variance()
	if err != nil {
		return Result{}, e.fail(logger, err, samples, start)
	}
	errBar, err := stats.ErrorBar(vol, variance, samples)
	if err != nil {
		return Result{}, e.fail(logger, err, samples, start)
	}

	res := Result{
		ID:       id,
		Value:    vol * mean,
		Error:    errBar,
		Samples:  samples,
		Volume:   vol,
		Mean:     mean,
		Variance: variance,
		Duration: time.Since(start),
	}

	logger.Debug("estimation finished",
		zap.Float64("value", res.Value),
		zap.Float64("error", res.Error),
		zap.Duration("duration", res.Duration))
	if e.recorder != nil {
		e.recorder.RecordEstimate(res)
	}
	return res, nil
}

func (e *Estimator) fail(logger *zap.Logger, err error, samples int, start time.Time) error {
	elapsed := time.Since(start)
	logger.Warn("estimation failed", zap.Error(err), zap.Int("completed_samples", samples))
	if e.recorder != nil {
		e.recorder.RecordFailure(err, samples, elapsed)
	}
	return err
}
