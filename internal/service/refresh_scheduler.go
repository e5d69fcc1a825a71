// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
)

// ErrSchedulerStarted is returned by a second call to Start
var ErrSchedulerStarted = errors.New("attendee refresh scheduler already started")

// RefreshScheduler runs a refresh immediately and then on every interval tick until stopped
type RefreshScheduler struct {
	provider port.AuthenticationProvider
	interval time.Duration

	mu         sync.Mutex
	started    bool
	stopped    bool
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// NewRefreshScheduler creates a scheduler. A non-positive interval falls back to the default.
func NewRefreshScheduler(provider port.AuthenticationProvider, interval time.Duration) *RefreshScheduler {
	if interval <= 0 {
		interval = constants.DefaultRefreshInterval
	}
	return &RefreshScheduler{
		provider: provider,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start blocks until ctx is done or Stop is called. It runs at most once per scheduler,
// and returns immediately when Stop came first.
// A running cycle is not interrupted by stopping; Start returns once it finishes.
func (r *RefreshScheduler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrSchedulerStarted
	}
	r.started = true
	if r.stopped {
		r.mu.Unlock()
		close(r.done)
		slog.InfoContext(ctx, "attendee refresh scheduler stopped before start")
		return nil
	}
	schedCtx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel
	r.mu.Unlock()

	slog.InfoContext(ctx, "starting attendee refresh scheduler", "interval", r.interval)
	defer func() {
		cancel()
		close(r.done)
		slog.InfoContext(ctx, "attendee refresh scheduler stopped")
	}()

	// cycles outlive the stop signal
	cycleCtx := context.WithoutCancel(schedCtx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(cycleCtx)

	for {
		select {
		case <-ticker.C:
			r.tick(cycleCtx)
		case <-schedCtx.Done():
			return nil
		}
	}
}

// Stop cancels the schedule and waits for a running Start to return.
// Stopping before Start makes the later Start return without refreshing.
func (r *RefreshScheduler) Stop() error {
	r.mu.Lock()
	r.stopped = true
	cancel, started := r.cancelFunc, r.started
	r.mu.Unlock()

	if cancel != nil {
		slog.Info("stopping attendee refresh scheduler")
		cancel()
	}
	if started {
		<-r.done
	}
	return nil
}

func (r *RefreshScheduler) tick(ctx context.Context) {
	if err := r.provider.Refresh(ctx); err != nil {
		slog.DebugContext(ctx, "scheduled attendee refresh skipped", "error", err)
	}
}
