// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/telemetry"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/httpclient"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/log"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/redaction"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/utils"
)

const tracerName = "github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/service"

// ErrRefreshInProgress is returned when a refresh or a clear is requested while a refresh is running
var ErrRefreshInProgress = errors.New("attendee refresh already in progress")

// credentialsRejecter is implemented by remote errors that can tell an invalid token apart
type credentialsRejecter interface {
	CredentialsRejected() bool
}

// AttendeeSyncService keeps the attendee index in step with the attendee source.
// Refresh cycles never fail the caller; failures are logged and the index stays as it was.
type AttendeeSyncService struct {
	lister    port.AttendeeLister
	index     *AttendeeIndex
	publisher port.EventPublisher
	metrics   *telemetry.SyncMetrics
	tracer    trace.Tracer
	now       func() time.Time

	running atomic.Bool

	mu   sync.RWMutex
	last *model.RefreshOutcome
}

// SyncOption configures an AttendeeSyncService
type SyncOption func(*AttendeeSyncService)

// WithEventPublisher announces index changes through publisher
func WithEventPublisher(publisher port.EventPublisher) SyncOption {
	return func(s *AttendeeSyncService) {
		s.publisher = publisher
	}
}

// WithSyncMetrics records refresh metrics
func WithSyncMetrics(metrics *telemetry.SyncMetrics) SyncOption {
	return func(s *AttendeeSyncService) {
		s.metrics = metrics
	}
}

// NewAttendeeSyncService creates a sync service reading from lister into index
func NewAttendeeSyncService(lister port.AttendeeLister, index *AttendeeIndex, opts ...SyncOption) *AttendeeSyncService {
	s := &AttendeeSyncService{
		lister: lister,
		index:  index,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh pulls attendees changed since the index watermark and upserts them.
// The only error returned is ErrRefreshInProgress.
func (s *AttendeeSyncService) Refresh(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		slog.InfoContext(ctx, "attendee refresh skipped, another cycle is running")
		return ErrRefreshInProgress
	}
	defer s.running.Store(false)

	refreshID := uuid.NewString()
	ctx = log.AppendCtx(ctx, slog.String("refresh_id", refreshID))
	ctx, span := s.tracer.Start(ctx, "attendee.refresh", trace.WithAttributes(attribute.String("refresh_id", refreshID)))
	defer span.End()

	outcome := model.RefreshOutcome{ID: refreshID, StartedAt: s.now().UTC()}
	since := s.index.UpdatedAt()

	slog.DebugContext(ctx, "attendee refresh started",
		"delta", since != nil,
		"since", log.LogOptionalTime(since),
	)

	received, added, err := s.sync(ctx, since)
	outcome.FinishedAt = s.now().UTC()
	outcome.Received = received
	outcome.Success = err == nil
	if err != nil {
		outcome.Error = err.Error()
	}
	s.setLast(outcome)

	stats := s.index.Stats()
	s.metrics.RecordRefresh(ctx, outcome.FinishedAt.Sub(outcome.StartedAt), outcome.Success)
	s.metrics.RecordAttendees(ctx, stats.Attendees)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attendee refresh failed")

		attrs := []any{"error", err, "since", log.LogOptionalTime(since)}
		if isCritical(err) {
			attrs = append(attrs, log.PriorityCritical())
		}
		slog.ErrorContext(ctx, "attendee refresh failed", attrs...)
		return nil
	}

	span.SetAttributes(attribute.Int("received", received), attribute.Int("attendees", stats.Attendees))
	slog.InfoContext(ctx, "attendee refresh completed",
		"received", received,
		"added", added,
		"attendees", stats.Attendees,
		"updated_at", utils.FormatWatermark(stats.UpdatedAt),
	)

	if added > 0 {
		s.publish(ctx, model.IndexUpdatedEvent{
			Action:    model.IndexActionRefreshed,
			Received:  received,
			Attendees: stats.Attendees,
			UpdatedAt: stats.UpdatedAt,
		})
	}
	return nil
}

// sync returns the number of records received and written
func (s *AttendeeSyncService) sync(ctx context.Context, since *time.Time) (int, int, error) {
	attendees, err := s.lister.ListAttendees(ctx, since)
	if err != nil {
		return 0, 0, err
	}
	if len(attendees) == 0 {
		return 0, 0, nil
	}

	added, err := s.index.AddBatch(ctx, attendees)
	if err != nil {
		return len(attendees), 0, err
	}
	return len(attendees), added, nil
}

// Authenticate reports whether email belongs to a known attendee
func (s *AttendeeSyncService) Authenticate(ctx context.Context, email string) bool {
	_, ok := s.index.Search(email)
	slog.DebugContext(ctx, "attendee lookup",
		"email", redaction.RedactEmail(email),
		"authenticated", ok,
	)
	return ok
}

// Stats returns the index size and watermark
func (s *AttendeeSyncService) Stats(_ context.Context) model.IndexStats {
	return s.index.Stats()
}

// LastRefresh returns the outcome of the most recent completed cycle, nil before the first one
func (s *AttendeeSyncService) LastRefresh() *model.RefreshOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	last := *s.last
	return &last
}

// Refreshing reports whether a cycle is running
func (s *AttendeeSyncService) Refreshing() bool {
	return s.running.Load()
}

// Clear drops the index content. The next refresh performs a full listing.
// It shares the refresh guard: a running cycle has already read the old watermark
// and would otherwise write a delta over the emptied index.
func (s *AttendeeSyncService) Clear(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		slog.InfoContext(ctx, "attendee index clear rejected, a refresh is running")
		return ErrRefreshInProgress
	}
	defer s.running.Store(false)

	if err := s.index.Clear(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear attendee index", "error", err)
		return err
	}
	s.metrics.RecordAttendees(ctx, 0)
	s.publish(ctx, model.IndexUpdatedEvent{Action: model.IndexActionCleared})
	return nil
}

func (s *AttendeeSyncService) setLast(outcome model.RefreshOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &outcome
}

func (s *AttendeeSyncService) publish(ctx context.Context, event model.IndexUpdatedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.IndexUpdated(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish index updated event", "error", err, "action", event.Action)
	}
}

// isCritical is true when retries were exhausted or the token was rejected
func isCritical(err error) bool {
	var timeoutErr *httpclient.TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	var rejecter credentialsRejecter
	return errors.As(err, &rejecter) && rejecter.CredentialsRejected()
}

var _ port.AuthenticationProvider = (*AttendeeSyncService)(nil)
