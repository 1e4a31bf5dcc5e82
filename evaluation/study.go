package evaluation

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mc-integrator/integrator"
	"mc-integrator/random"
	"mc-integrator/region"
)

// StudyConfig describes a convergence study
type StudyConfig struct {
	Name         string
	Region       region.Region
	Func         integrator.Func
	SampleCounts []int
	Replicates   int
	Workers      int      // concurrent runs, 0 means one per CPU
	Precision    int      // fractional digits kept, negative disables rounding
	Seed         uint64   // base seed, replicate streams are derived from it
	Expected     *float64 // analytic value, if known
	Logger       *zap.Logger
	Recorder     integrator.Recorder
}

// LevelResult summarises the replicates at one sample count
type LevelResult struct {
	Samples       int           `json:"samples"`
	Replicates    int           `json:"replicates"`
	MeanEstimate  float64       `json:"mean_estimate"`
	EstimateStdev float64       `json:"estimate_stdev"`
	MeanErrorBar  float64       `json:"mean_error_bar"`
	AbsError      *float64      `json:"abs_error,omitempty"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
	Estimates     []float64     `json:"estimates"`
}

// StudyResult contains the results of a convergence study
type StudyResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Region   string        `json:"region"`
	Seed     uint64        `json:"seed"`
	Workers  int           `json:"workers"`
	Expected *float64      `json:"expected,omitempty"`
	Levels   []LevelResult `json:"levels"`
	Duration time.Duration `json:"duration"`
}

// RunStudy estimates the integral Replicates times at every sample count.
// Each replicate is an independent sequential estimation with its own
// stream derived from Seed; replicates run concurrently on Workers
// goroutines, so Func must be safe for concurrent use. Results are reduced
// in replicate order and are reproducible for a fixed Seed.
func RunStudy(ctx context.Context, cfg StudyConfig) (StudyResult, error) {
	if cfg.Replicates < 2 {
		return StudyResult{}, fmt.Errorf("evaluation: need at least 2 replicates, got %d", cfg.Replicates)
	}
	if len(cfg.SampleCounts) == 0 {
		return StudyResult{}, fmt.Errorf("evaluation: no sample counts")
	}
	if err := cfg.Region.Validate(); err != nil {
		return StudyResult{}, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	result := StudyResult{
		ID:       uuid.NewString(),
		Name:     cfg.Name,
		Region:   cfg.Region.String(),
		Seed:     cfg.Seed,
		Workers:  workers,
		Expected: cfg.Expected,
		Levels:   make([]LevelResult, 0, len(cfg.SampleCounts)),
	}
	logger = logger.With(zap.String("study_id", result.ID), zap.String("study", cfg.Name))
	start := time.Now()

	for level, n := range cfg.SampleCounts {
		logger.Info("running convergence level",
			zap.Int("samples", n),
			zap.Int("replicates", cfg.Replicates),
			zap.Int("workers", workers))

		runs, err := runReplicates(ctx, cfg, level, n, workers)
		if err != nil {
			return StudyResult{}, err
		}
		lr := summarise(n, runs, cfg.Expected)
		logger.Info("convergence level finished",
			zap.Int("samples", n),
			zap.Float64("mean_estimate", lr.MeanEstimate),
			zap.Float64("estimate_stdev", lr.EstimateStdev),
			zap.Float64("mean_error_bar", lr.MeanErrorBar))
		result.Levels = append(result.Levels, lr)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func runReplicates(ctx context.Context, cfg StudyConfig, level, samples, workers int) ([]integrator.Result, error) {
	runs := make([]integrator.Result, cfg.Replicates)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cfg.Replicates; i++ {
		stream := level*cfg.Replicates + i
		g.Go(func() error {
			opts := []integrator.Option{
				integrator.WithSeed(random.Derive(cfg.Seed, stream)),
				integrator.WithPrecision(cfg.Precision),
			}
			if cfg.Logger != nil {
				opts = append(opts, integrator.WithLogger(cfg.Logger))
			}
			if cfg.Recorder != nil {
				opts = append(opts, integrator.WithRecorder(cfg.Recorder))
			}
			res, err := integrator.New(opts...).Estimate(ctx, cfg.Region, cfg.Func, samples)
			if err != nil {
				return fmt.Errorf("evaluation: replicate %d with %d samples: %w", i, samples, err)
			}
			runs[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

func summarise(samples int, runs []integrator.Result, expected *float64) LevelResult {
	lr := LevelResult{
		Samples:    samples,
		Replicates: len(runs),
		Estimates:  make([]float64, len(runs)),
	}

	var sum, sumErr float64
	for i, r := range runs {
		lr.Estimates[i] = r.Value
		sum += r.Value
		sumErr += r.Error
		lr.TotalDuration += r.Duration
	}
	n := float64(len(runs))
	lr.MeanEstimate = sum / n
	lr.MeanErrorBar = sumErr / n
	lr.AvgDuration = lr.TotalDuration / time.Duration(len(runs))

	var ss float64
	for _, v := range lr.Estimates {
		d := v - lr.MeanEstimate
		ss += d * d
	}
	lr.EstimateStdev = math.Sqrt(ss / (n - 1))

	if expected != nil {
		abs := math.Abs(lr.MeanEstimate - *expected)
		lr.AbsError = &abs
	}
	return lr
}

// PrintReport prints a convergence table for the study
func PrintReport(w io.Writer, res StudyResult) {
	fmt.Fprintf(w, "\n========== CONVERGENCE STUDY: %s ==========\n", res.Name)
	fmt.Fprintf(w, "Region: %s   Seed: %d   Workers: %d\n", res.Region, res.Seed, res.Workers)
	if res.Expected != nil {
		fmt.Fprintf(w, "Expected: %.6g\n", *res.Expected)
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)
	table.SetHeader([]string{"Samples", "Mean Estimate", "Stdev", "Mean Error Bar", "Abs Error", "Avg Run"})

	for _, lr := range res.Levels {
		absErr := "-"
		if lr.AbsError != nil {
			absErr = strconv.FormatFloat(*lr.AbsError, 'g', 4, 64)
		}
		table.Append([]string{
			strconv.Itoa(lr.Samples),
			strconv.FormatFloat(lr.MeanEstimate, 'g', 8, 64),
			strconv.FormatFloat(lr.EstimateStdev, 'g', 4, 64),
			strconv.FormatFloat(lr.MeanErrorBar, 'g', 4, 64),
			absErr,
			lr.AvgDuration.Truncate(time.Microsecond).String(),
		})
	}
	table.Render()

	fmt.Fprintf(w, "Study completed in %v\n", res.Duration.Truncate(time.Millisecond))
}
