// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/httpclient"
)

func TestNewSyncMetrics_NilProvider(t *testing.T) {
	metrics, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	// nil metrics are a no-op
	metrics.RecordRefresh(context.Background(), time.Second, true)
	metrics.RecordAttendees(context.Background(), 3)
	metrics.RecordAttempt(context.Background(), httpclient.OutcomeSuccess)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := make(map[string]metricdata.Aggregation)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != SyncMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			found[m.Name] = m.Data
		}
	}
	return found
}

func TestSyncMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	metrics.RecordRefresh(ctx, 1500*time.Millisecond, true)
	metrics.RecordRefresh(ctx, 30*time.Second, false)
	metrics.RecordAttendees(ctx, 42)
	metrics.RecordAttempt(ctx, httpclient.OutcomeTimeout)
	metrics.RecordAttempt(ctx, httpclient.OutcomeTimeout)
	metrics.RecordAttempt(ctx, httpclient.OutcomeSuccess)

	found := collect(t, reader)

	histogram, ok := found["attendee_auth_refresh_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, histogram.DataPoints, 2)

	gauge, ok := found["attendee_auth_attendees_total"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(42), gauge.DataPoints[0].Value)

	counter, ok := found["attendee_auth_fetch_attempts_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	byOutcome := make(map[string]int64)
	for _, dp := range counter.DataPoints {
		outcome, _ := dp.Attributes.Value("outcome")
		byOutcome[outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{
		httpclient.OutcomeTimeout: 2,
		httpclient.OutcomeSuccess: 1,
	}, byOutcome)
}
