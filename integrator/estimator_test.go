package integrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"mc-integrator/region"
	"mc-integrator/sampler"
)

func identity(p region.Point) float64 { return p[0] }

type fakeRecorder struct {
	results  []Result
	failures []error
}

func (f *fakeRecorder) RecordEstimate(res Result) { f.results = append(f.results, res) }

func (f *fakeRecorder) RecordFailure(err error, samples int, elapsed time.Duration) {
	f.failures = append(f.failures, err)
}

func TestEstimateFixedSource(t *testing.T) {
	e := New(WithSource(sampler.NewSequence(0.25, 0.75)))

	res, err := e.Estimate(context.Background(), region.New([2]float64{0, 1}), Pure(identity), 2)
	require.NoError(t, err)

	assert.Equal(t, 0.5, res.Value)
	assert.Equal(t, 0.5, res.Mean)
	assert.Equal(t, 1.0, res.Volume)
	assert.InDelta(t, 0.125, res.Variance, 1e-15)
	assert.InDelta(t, 0.0884, res.Error, 1e-4)
	assert.Equal(t, 2, res.Samples)
	assert.NotEmpty(t, res.ID)
}

func TestEstimateConstantFunction(t *testing.T) {
	regions := []region.Region{
		region.New([2]float64{0, 1}),
		region.New([2]float64{0, 2}, [2]float64{-1, 2}),
		region.New([2]float64{-1, 1}, [2]float64{0, 4}, [2]float64{0, 0.5}, [2]float64{1, 2}, [2]float64{0, 8}),
	}

	for _, c := range []float64{0, 3, -2.5, 7.25, 0.1, 0.3, 1.7} {
		for _, r := range regions {
			t.Run(fmt.Sprintf("c=%v dims=%d", c, r.Dims()), func(t *testing.T) {
				res, err := New(WithSeed(5)).Estimate(context.Background(), r, Pure(func(region.Point) float64 { return c }), 1000)
				require.NoError(t, err)
				assert.Equal(t, c*r.Volume(), res.Value)
				assert.Equal(t, 0.0, res.Error)
				assert.Equal(t, 0.0, res.Variance)
			})
		}
	}
}

func TestEstimateIdentityConverges(t *testing.T) {
	res, err := Estimate(context.Background(), region.New([2]float64{0, 1}), Pure(identity), 100000)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Value, 0.05)
	assert.GreaterOrEqual(t, res.Error, 0.0)
}

func TestEstimateMultivariate(t *testing.T) {
	// Integral of x*y over [0,1]x[0,2] is 1.
	r := region.New([2]float64{0, 1}, [2]float64{0, 2})
	res, err := New(WithSeed(2024), WithoutRounding()).Estimate(context.Background(), r, Pure(func(p region.Point) float64 {
		return p[0] * p[1]
	}), 200000)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Value, 0.02)
}

func TestEstimateErrorScalesWithVolume(t *testing.T) {
	narrow := region.New([2]float64{0, 1}, [2]float64{0, 1})
	wide := region.New([2]float64{0, 1}, [2]float64{0, 2})

	small, err := New(WithSeed(9)).Estimate(context.Background(), narrow, Pure(identity), 5000)
	require.NoError(t, err)
	large, err := New(WithSeed(9)).Estimate(context.Background(), wide, Pure(identity), 5000)
	require.NoError(t, err)

	require.Greater(t, small.Error, 0.0)
	assert.InDelta(t, small.Variance, large.Variance, 1e-12)
	assert.InDelta(t, 2*small.Error, large.Error, 1e-12)
	assert.InDelta(t, 2*small.Value, large.Value, 1e-12)
}

func TestEstimateSeededIsReproducible(t *testing.T) {
	r := region.New([2]float64{-1, 1}, [2]float64{-1, 1})
	f := Pure(func(p region.Point) float64 { return math.Exp(-p[0]*p[0] - p[1]*p[1]) })

	a, err := New(WithSeed(77)).Estimate(context.Background(), r, f, 3000)
	require.NoError(t, err)
	b, err := New(WithSeed(77)).Estimate(context.Background(), r, f, 3000)
	require.NoError(t, err)

	assert.Equal(t, a.Value, b.Value)
	assert.Equal(t, a.Error, b.Error)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEstimateInvalidInput(t *testing.T) {
	ctx := context.Background()
	unit := region.New([2]float64{0, 1})

	for _, n := range []int{-1, 0, 1} {
		_, err := Estimate(ctx, unit, Pure(identity), n)
		assert.ErrorIs(t, err, ErrInvalidSampleCount, "samples=%d", n)
	}

	_, err := Estimate(ctx, region.Region{}, Pure(identity), 10)
	assert.ErrorIs(t, err, region.ErrInvalidRegion)

	_, err = Estimate(ctx, region.New([2]float64{1, 0}), Pure(identity), 10)
	assert.ErrorIs(t, err, region.ErrInvalidRegion)

	_, err = Estimate(ctx, unit, nil, 10)
	assert.ErrorIs(t, err, ErrNilFunction)
}

func TestEstimateFunctionFailureAborts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	f := func(p region.Point) (float64, error) {
		calls++
		if calls == 4 {
			return 0, boom
		}
		return 1, nil
	}

	rec := &fakeRecorder{}
	res, err := New(WithSeed(1), WithRecorder(rec)).Estimate(context.Background(), region.New([2]float64{0, 1}), f, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 4, calls)

	var evalErr *EvaluationError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, 3, evalErr.Sample)

	assert.Empty(t, rec.results)
	assert.Len(t, rec.failures, 1)
}

func TestEstimateNonFiniteValue(t *testing.T) {
	f := Pure(func(p region.Point) float64 { return 1 / (p[0] - p[0]) })
	_, err := New(WithSeed(1)).Estimate(context.Background(), region.New([2]float64{0, 1}), f, 10)
	assert.ErrorIs(t, err, ErrNonFiniteValue)

	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, 0, evalErr.Sample)
}

func TestEstimateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithSeed(1)).Estimate(ctx, region.New([2]float64{0, 1}), Pure(identity), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEstimateCancelledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	f := func(p region.Point) (float64, error) {
		calls++
		if calls == 10 {
			cancel()
		}
		return p[0], nil
	}

	_, err := New(WithSeed(1)).Estimate(ctx, region.New([2]float64{0, 1}), f, 10*cancelCheckInterval)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, cancelCheckInterval, calls)
}

func TestEstimateRecordsAndLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rec := &fakeRecorder{}

	res, err := New(WithSeed(3), WithLogger(zap.New(core)), WithRecorder(rec)).
		Estimate(context.Background(), region.New([2]float64{0, 2}), Pure(identity), 100)
	require.NoError(t, err)

	require.Len(t, rec.results, 1)
	assert.Equal(t, res, rec.results[0])

	entries := logs.FilterMessage("estimation finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, res.ID, entries[0].ContextMap()["run_id"])

	started := logs.FilterMessage("estimation started").All()
	require.Len(t, started, 1)
	assert.Equal(t, int64(sampler.DefaultPrecision), started[0].ContextMap()["precision"])
}

func BenchmarkEstimate1D(b *testing.B) {
	e := New(WithSeed(1))
	r := region.New([2]float64{0, 1})
	for i := 0; i < b.N; i++ {
		_, _ = e.Estimate(context.Background(), r, Pure(identity), 10000)
	}
}

func BenchmarkEstimate5DUnrounded(b *testing.B) {
	e := New(WithSeed(1), WithoutRounding())
	r := region.New([2]float64{0, 1}, [2]float64{0, 1}, [2]float64{0, 1}, [2]float64{0, 1}, [2]float64{0, 1})
	f := Pure(func(p region.Point) float64 { return p[0] * p[1] * p[2] * p[3] * p[4] })
	for i := 0; i < b.N; i++ {
		_, _ = e.Estimate(context.Background(), r, f, 10000)
	}
}
