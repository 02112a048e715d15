package bowgo

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector(t *testing.T) {
	var mc BasicMetricsCollector

	mc.RecordTrain(time.Second, nil)
	mc.RecordTrain(time.Second, assert.AnError)
	mc.RecordAdd(10*time.Millisecond, nil)
	mc.RecordAdd(30*time.Millisecond, nil)
	mc.RecordQuery(4, 20*time.Millisecond, nil)
	mc.RecordQuery(4, 0, assert.AnError)
	mc.RecordSnapshot(time.Second, nil)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.TrainCount)
	assert.Equal(t, int64(1), stats.TrainErrors)
	assert.Equal(t, int64(2), stats.AddCount)
	assert.Equal(t, int64(0), stats.AddErrors)
	assert.Equal(t, (20 * time.Millisecond).Nanoseconds(), stats.AddAvgNanos)
	assert.Equal(t, int64(2), stats.QueryCount)
	assert.Equal(t, int64(1), stats.QueryErrors)
	assert.Equal(t, int64(1), stats.SnapshotCount)
	assert.Equal(t, int64(0), stats.SnapshotErrors)
}

func TestMetricsWiredIntoDatabase(t *testing.T) {
	ctx := context.Background()
	images := testImages(t, 5)

	var trainMetrics BasicMetricsCollector
	voc, err := Train(ctx, images, 4, 2, func(o *TrainOptions) {
		o.Metrics = &trainMetrics
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), trainMetrics.GetStats().TrainCount)

	var mc BasicMetricsCollector
	db, err := New(voc, WithMetricsCollector(&mc))
	require.NoError(t, err)

	_, err = db.Add(ctx, images[0])
	require.NoError(t, err)
	_, err = db.Query(ctx, images[0], 2)
	require.NoError(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.AddCount)
	assert.Equal(t, int64(1), stats.QueryCount)
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	mc.RecordTrain(time.Second, nil)
	mc.RecordAdd(time.Millisecond, nil)
	mc.RecordQuery(4, time.Millisecond, assert.AnError)
	mc.RecordSnapshot(time.Millisecond, nil)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["bowgo_operations_total"])
	assert.True(t, names["bowgo_operation_errors_total"])
	assert.True(t, names["bowgo_operation_duration_seconds"])
}

func TestPrometheusCollectorDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	_, err = NewPrometheusCollector(reg)
	assert.Error(t, err)
}
