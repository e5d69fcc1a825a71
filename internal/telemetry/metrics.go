// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry instruments for the attendee directory sync.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/httpclient"
)

// SyncMetricsMeterName is the name used for the sync metrics meter
const SyncMetricsMeterName = "github.com/linuxfoundation/lfx-v2-attendee-auth-service/sync"

// SyncMetrics holds the OpenTelemetry instruments for refresh cycles and Eventbrite calls
type SyncMetrics struct {
	refreshDuration metric.Float64Histogram
	attendeesTotal  metric.Int64Gauge
	fetchAttempts   metric.Int64Counter
}

var _ httpclient.AttemptObserver = (*SyncMetrics)(nil)

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	refreshDuration, err := meter.Float64Histogram(
		"attendee_auth_refresh_duration_seconds",
		metric.WithDescription("Duration of attendee directory refresh cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, err
	}

	attendeesTotal, err := meter.Int64Gauge(
		"attendee_auth_attendees_total",
		metric.WithDescription("Number of attendees in the lookup index"),
		metric.WithUnit("{attendee}"),
	)
	if err != nil {
		return nil, err
	}

	fetchAttempts, err := meter.Int64Counter(
		"attendee_auth_fetch_attempts_total",
		metric.WithDescription("Eventbrite request attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		refreshDuration: refreshDuration,
		attendeesTotal:  attendeesTotal,
		fetchAttempts:   fetchAttempts,
	}, nil
}

// RecordRefresh records the duration of a refresh cycle
func (m *SyncMetrics) RecordRefresh(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.refreshDuration == nil {
		return
	}
	m.refreshDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordAttendees records the current index size
func (m *SyncMetrics) RecordAttendees(ctx context.Context, count int) {
	if m == nil || m.attendeesTotal == nil {
		return
	}
	m.attendeesTotal.Record(ctx, int64(count))
}

// RecordAttempt counts one Eventbrite request attempt
func (m *SyncMetrics) RecordAttempt(ctx context.Context, outcome string) {
	if m == nil || m.fetchAttempts == nil {
		return
	}
	m.fetchAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
