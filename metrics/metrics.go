package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mc-integrator/integrator"
)

// Prometheus metric names.
const (
	MetricEstimationsTotal          = "mcint_estimations_total"
	MetricSamplesTotal              = "mcint_samples_total"
	MetricEstimationDurationSeconds = "mcint_estimation_duration_seconds"
	MetricLastEstimate              = "mcint_last_estimate"
	MetricLastErrorBar              = "mcint_last_error_bar"
)

// Collector tracks estimation runs. It implements integrator.Recorder and is
// safe for concurrent use.
type Collector struct {
	mutex         sync.RWMutex
	startTime     time.Time       // time when collection started
	endTime       time.Time       // time when collection stopped
	totalRuns     int64           // counter for successful runs
	totalFailures int64           // counter for failed runs
	totalSamples  int64           // samples drawn by successful and failed runs
	runDurations  []time.Duration // collected durations of successful runs
	runs          []RunRecord     // history of successful runs
	failures      []FailureRecord // history of failed runs
	numCPU        int

	registry         *prometheus.Registry
	estimationsTotal *prometheus.CounterVec
	samplesTotal     prometheus.Counter
	durationSeconds  prometheus.Histogram
	lastEstimate     prometheus.Gauge
	lastErrorBar     prometheus.Gauge
}

// RunRecord captures one successful estimation
type RunRecord struct {
	ID       string        `json:"id"`
	Samples  int           `json:"samples"`
	Value    float64       `json:"value"`
	Error    float64       `json:"error"`
	Duration time.Duration `json:"duration"`
}

// FailureRecord captures one failed estimation
type FailureRecord struct {
	Samples  int           `json:"completed_samples"`
	Reason   string        `json:"reason"`
	Duration time.Duration `json:"duration"`
}

// Summary contains all collected run data
type Summary struct {
	Duration         time.Duration   `json:"duration"`
	TotalRuns        int64           `json:"total_runs"`
	TotalFailures    int64           `json:"total_failures"`
	TotalSamples     int64           `json:"total_samples"`
	SamplesPerSecond float64         `json:"samples_per_second"`
	AvgRunDuration   time.Duration   `json:"avg_run_duration"`
	P95RunDuration   time.Duration   `json:"p95_run_duration"`
	P99RunDuration   time.Duration   `json:"p99_run_duration"`
	NumCPU           int             `json:"num_cpu"`
	Runs             []RunRecord     `json:"runs"`
	Failures         []FailureRecord `json:"failures"`
	DurationHist     []int64         `json:"run_duration_histogram"`
}

// NewCollector creates a new collector with its own Prometheus registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	mc := &Collector{
		startTime:    time.Now(),
		runDurations: make([]time.Duration, 0, 1000),
		runs:         make([]RunRecord, 0, 1000),
		numCPU:       runtime.NumCPU(),
		registry:     registry,
		estimationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricEstimationsTotal,
			Help: "Estimation runs by outcome.",
		}, []string{"outcome"}),
		samplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSamplesTotal,
			Help: "Function evaluations performed.",
		}),
		durationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricEstimationDurationSeconds,
			Help:    "Wall time of successful estimation runs.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		lastEstimate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastEstimate,
			Help: "Value of the most recent successful estimate.",
		}),
		lastErrorBar: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastErrorBar,
			Help: "Error bar of the most recent successful estimate.",
		}),
	}

	registry.MustRegister(mc.estimationsTotal, mc.samplesTotal, mc.durationSeconds, mc.lastEstimate, mc.lastErrorBar)
	return mc
}

// Registry exposes the Prometheus registry holding the collector's metrics
func (mc *Collector) Registry() *prometheus.Registry {
	return mc.registry
}

// Start begins metrics collection
func (mc *Collector) Start() {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.startTime = time.Now()
}

// Stop ends metrics collection
func (mc *Collector) Stop() {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.endTime = time.Now()
}

// RecordEstimate records a successful estimation run
func (mc *Collector) RecordEstimate(res integrator.Result) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.totalRuns++
	mc.totalSamples += int64(res.Samples)
	mc.runDurations = append(mc.runDurations, res.Duration)
	mc.runs = append(mc.runs, RunRecord{
		ID:       res.ID,
		Samples:  res.Samples,
		Value:    res.Value,
		Error:    res.Error,
		Duration: res.Duration,
	})

	mc.estimationsTotal.WithLabelValues("success").Inc()
	mc.samplesTotal.Add(float64(res.Samples))
	mc.durationSeconds.Observe(res.Duration.Seconds())
	mc.lastEstimate.Set(res.Value)
	mc.lastErrorBar.Set(res.Error)
}

// RecordFailure records an aborted estimation run
func (mc *Collector) RecordFailure(err error, samples int, elapsed time.Duration) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()
	mc.totalFailures++
	mc.totalSamples += int64(samples)
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	mc.failures = append(mc.failures, FailureRecord{Samples: samples, Reason: reason, Duration: elapsed})

	mc.estimationsTotal.WithLabelValues("failure").Inc()
	mc.samplesTotal.Add(float64(samples))
}

// GetSummary returns the collected run statistics
func (mc *Collector) GetSummary() Summary {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	duration := mc.endTime.Sub(mc.startTime)
	if mc.endTime.IsZero() || duration <= 0 {
		duration = time.Since(mc.startTime)
	}

	var avgRun, p95Run, p99Run time.Duration

	if len(mc.runDurations) > 0 {
		total := time.Duration(0)
		for _, d := range mc.runDurations {
			total += d
		}
		avgRun = total / time.Duration(len(mc.runDurations))

		sorted := make([]time.Duration, len(mc.runDurations))
		copy(sorted, mc.runDurations)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		p95Run = sorted[percentileIndex(len(sorted), 0.95)]
		p99Run = sorted[percentileIndex(len(sorted), 0.99)]
	}

	samplesPerSecond := 0.0
	if duration > 0 {
		samplesPerSecond = float64(mc.totalSamples) / duration.Seconds()
	}

	return Summary{
		Duration:         duration,
		TotalRuns:        mc.totalRuns,
		TotalFailures:    mc.totalFailures,
		TotalSamples:     mc.totalSamples,
		SamplesPerSecond: samplesPerSecond,
		AvgRunDuration:   avgRun,
		P95RunDuration:   p95Run,
		P99RunDuration:   p99Run,
		NumCPU:           mc.numCPU,
		Runs:             append([]RunRecord(nil), mc.runs...),
		Failures:         append([]FailureRecord(nil), mc.failures...),
		DurationHist:     createHistogram(mc.runDurations),
	}
}

func percentileIndex(n int, q float64) int {
	idx := int(float64(n) * q)
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// createHistogram buckets durations into 20 equal-width buckets up to the maximum
func createHistogram(durations []time.Duration) []int64 {
	if len(durations) == 0 {
		return []int64{}
	}

	buckets := make([]int64, 20)

	maxDuration := time.Duration(0)
	for _, d := range durations {
		if d > maxDuration {
			maxDuration = d
		}
	}

	if maxDuration == 0 {
		buckets[0] = int64(len(durations))
		return buckets
	}

	bucketSize := maxDuration / time.Duration(len(buckets))
	if bucketSize == 0 {
		bucketSize = 1
	}

	for _, d := range durations {
		bucketIndex := int(d / bucketSize)
		if bucketIndex >= len(buckets) {
			bucketIndex = len(buckets) - 1
		}
		buckets[bucketIndex]++
	}

	return buckets
}

// ExportToJSON exports the summary to JSON format
func (mc *Collector) ExportToJSON() ([]byte, error) {
	return json.MarshalIndent(mc.GetSummary(), "", "  ")
}

// WriteTextfile writes the Prometheus metrics in text exposition format to path
func (mc *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, mc.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// PrintSummary writes a summary of the metrics to w
func (mc *Collector) PrintSummary(w io.Writer) {
	s := mc.GetSummary()

	fmt.Fprintln(w, "\n========== ESTIMATION METRICS SUMMARY ==========")
	fmt.Fprintf(w, "Duration: %v\n", s.Duration)
	fmt.Fprintf(w, "Total Runs: %d\n", s.TotalRuns)
	fmt.Fprintf(w, "Total Failures: %d\n", s.TotalFailures)
	fmt.Fprintf(w, "Total Samples: %d\n", s.TotalSamples)
	fmt.Fprintf(w, "Samples/Second: %.2f\n", s.SamplesPerSecond)
	fmt.Fprintf(w, "Average Run Duration: %v\n", s.AvgRunDuration)
	fmt.Fprintf(w, "P95 Run Duration: %v\n", s.P95RunDuration)
	fmt.Fprintf(w, "P99 Run Duration: %v\n", s.P99RunDuration)
	fmt.Fprintf(w, "Number of CPUs: %d\n", s.NumCPU)
	fmt.Fprintln(w, "================================================")
}
