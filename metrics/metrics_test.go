package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mc-integrator/integrator"
)

func TestCollectorRecordsRuns(t *testing.T) {
	mc := NewCollector()
	mc.Start()

	for i := 1; i <= 10; i++ {
		mc.RecordEstimate(integrator.Result{
			ID:       "run",
			Value:    float64(i),
			Error:    0.1,
			Samples:  100,
			Duration: time.Duration(i) * time.Millisecond,
		})
	}
	mc.RecordFailure(errors.New("boom"), 7, time.Millisecond)
	mc.Stop()

	s := mc.GetSummary()
	assert.Equal(t, int64(10), s.TotalRuns)
	assert.Equal(t, int64(1), s.TotalFailures)
	assert.Equal(t, int64(1007), s.TotalSamples)
	assert.Equal(t, 5500*time.Microsecond, s.AvgRunDuration)
	assert.Equal(t, 10*time.Millisecond, s.P95RunDuration)
	assert.Equal(t, 10*time.Millisecond, s.P99RunDuration)
	assert.Len(t, s.Runs, 10)
	require.Len(t, s.Failures, 1)
	assert.Equal(t, "boom", s.Failures[0].Reason)
	assert.Equal(t, 7, s.Failures[0].Samples)

	var total int64
	for _, c := range s.DurationHist {
		total += c
	}
	assert.Equal(t, int64(10), total)
	assert.Len(t, s.DurationHist, 20)
}

func TestCollectorPrometheus(t *testing.T) {
	mc := NewCollector()
	mc.RecordEstimate(integrator.Result{Value: 0.5, Error: 0.01, Samples: 50, Duration: time.Millisecond})
	mc.RecordEstimate(integrator.Result{Value: 0.25, Error: 0.02, Samples: 50, Duration: time.Millisecond})
	mc.RecordFailure(errors.New("boom"), 3, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(mc.estimationsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.estimationsTotal.WithLabelValues("failure")))
	assert.Equal(t, 103.0, testutil.ToFloat64(mc.samplesTotal))
	assert.Equal(t, 0.25, testutil.ToFloat64(mc.lastEstimate))
	assert.Equal(t, 0.02, testutil.ToFloat64(mc.lastErrorBar))

	families, err := mc.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, MetricEstimationsTotal)
	assert.Contains(t, names, MetricEstimationDurationSeconds)
}

func TestCollectorWriteTextfile(t *testing.T) {
	mc := NewCollector()
	mc.RecordEstimate(integrator.Result{Value: 1, Samples: 10, Duration: time.Millisecond})

	path := filepath.Join(t.TempDir(), "mcint.prom")
	require.NoError(t, mc.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), MetricSamplesTotal+" 10")
}

func TestCollectorExportAndPrint(t *testing.T) {
	mc := NewCollector()
	mc.RecordEstimate(integrator.Result{ID: "abc", Value: 2, Samples: 10, Duration: time.Millisecond})

	data, err := mc.ExportToJSON()
	require.NoError(t, err)

	var s Summary
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, int64(1), s.TotalRuns)
	require.Len(t, s.Runs, 1)
	assert.Equal(t, "abc", s.Runs[0].ID)

	var buf bytes.Buffer
	mc.PrintSummary(&buf)
	assert.True(t, strings.Contains(buf.String(), "Total Runs: 1"))
}

func TestCreateHistogram(t *testing.T) {
	assert.Empty(t, createHistogram(nil))

	zero := createHistogram([]time.Duration{0, 0})
	assert.Equal(t, int64(2), zero[0])

	hist := createHistogram([]time.Duration{time.Second, 2 * time.Second})
	assert.Equal(t, int64(1), hist[10])
	assert.Equal(t, int64(1), hist[19])
}
