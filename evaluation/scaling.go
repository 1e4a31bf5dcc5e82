package evaluation

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// ScalingResult is one study run at a fixed worker count
type ScalingResult struct {
	Workers          int           `json:"workers"`
	Duration         time.Duration `json:"duration"`
	SamplesPerSecond float64       `json:"samples_per_second"`
	Speedup          float64       `json:"speedup"`
}

// RunScalabilityTest repeats the study with each worker count and compares
// wall time against the first entry. Estimates do not depend on the worker
// count, only throughput does.
func RunScalabilityTest(ctx context.Context, cfg StudyConfig, workerCounts []int) ([]ScalingResult, error) {
	if len(workerCounts) == 0 {
		return nil, fmt.Errorf("evaluation: no worker counts")
	}

	totalSamples := 0
	for _, n := range cfg.SampleCounts {
		totalSamples += n * cfg.Replicates
	}

	results := make([]ScalingResult, 0, len(workerCounts))
	for _, w := range workerCounts {
		c := cfg
		c.Workers = w
		res, err := RunStudy(ctx, c)
		if err != nil {
			return nil, err
		}

		sr := ScalingResult{Workers: res.Workers, Duration: res.Duration, Speedup: 1}
		if res.Duration > 0 {
			sr.SamplesPerSecond = float64(totalSamples) / res.Duration.Seconds()
		}
		if len(results) > 0 && res.Duration > 0 {
			sr.Speedup = results[0].Duration.Seconds() / res.Duration.Seconds()
		}
		results = append(results, sr)
	}
	return results, nil
}

// PrintScalingReport prints throughput per worker count
func PrintScalingReport(w io.Writer, results []ScalingResult) {
	fmt.Fprintln(w, "\n========== SCALABILITY ==========")

	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader([]string{"Workers", "Duration", "Samples/Sec", "Speedup"})
	for _, r := range results {
		table.Append([]string{
			strconv.Itoa(r.Workers),
			r.Duration.Truncate(time.Microsecond).String(),
			strconv.FormatFloat(r.SamplesPerSecond, 'f', 0, 64),
			strconv.FormatFloat(r.Speedup, 'f', 2, 64) + "x",
		})
	}
	table.Render()
}
