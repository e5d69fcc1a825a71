// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package httpclient

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// AdmissionGate is a process-wide counting semaphore bounding in-flight network attempts.
// Waiters are admitted in FIFO order.
type AdmissionGate struct {
	sem      *semaphore.Weighted
	capacity int64
	inFlight atomic.Int64
}

// NewAdmissionGate creates a gate admitting at most capacity concurrent holders.
func NewAdmissionGate(capacity int) *AdmissionGate {
	if capacity < 1 {
		capacity = 1
	}
	return &AdmissionGate{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
	}
}

// Acquire blocks until a permit is available or ctx is done.
func (g *AdmissionGate) Acquire(ctx context.Context) error {
	if g == nil {
		return nil
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	g.inFlight.Add(1)
	return nil
}

// Release returns a permit taken by Acquire.
func (g *AdmissionGate) Release() {
	if g == nil {
		return
	}
	g.inFlight.Add(-1)
	g.sem.Release(1)
}

// Capacity returns the maximum number of concurrent holders.
func (g *AdmissionGate) Capacity() int {
	if g == nil {
		return 0
	}
	return int(g.capacity)
}

// InFlight returns the number of permits currently held.
func (g *AdmissionGate) InFlight() int {
	if g == nil {
		return 0
	}
	return int(g.inFlight.Load())
}
