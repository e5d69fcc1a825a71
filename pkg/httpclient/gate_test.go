// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// concurrencyTracker tracks the high-water mark of concurrent handlers.
type concurrencyTracker struct {
	current atomic.Int32
	peak    atomic.Int32
}

func (p *concurrencyTracker) handler(hold time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := p.current.Add(1)
		defer p.current.Add(-1)
		for {
			old := p.peak.Load()
			if n <= old || p.peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(hold)
		w.WriteHeader(http.StatusOK)
	}
}

func TestNewAdmissionGate(t *testing.T) {
	assert.Equal(t, 5, NewAdmissionGate(5).Capacity())
	assert.Equal(t, 1, NewAdmissionGate(0).Capacity())

	var nilGate *AdmissionGate
	require.NoError(t, nilGate.Acquire(context.Background()))
	nilGate.Release()
	assert.Equal(t, 0, nilGate.InFlight())
}

func TestAdmissionGate_BlocksAtCapacity(t *testing.T) {
	gate := NewAdmissionGate(2)
	ctx := context.Background()

	require.NoError(t, gate.Acquire(ctx))
	require.NoError(t, gate.Acquire(ctx))
	assert.Equal(t, 2, gate.InFlight())

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, gate.Acquire(waitCtx), context.DeadlineExceeded)
	assert.Equal(t, 2, gate.InFlight())

	gate.Release()
	require.NoError(t, gate.Acquire(ctx))
	gate.Release()
	gate.Release()
	assert.Equal(t, 0, gate.InFlight())
}

func TestAdmissionGate_SharedCeilingAcrossClients(t *testing.T) {
	tracker := &concurrencyTracker{}
	server := httptest.NewServer(tracker.handler(15 * time.Millisecond))
	defer server.Close()

	gate := NewAdmissionGate(5)
	config := DefaultConfig()
	config.Gate = gate

	clients := []*Client{NewClient(config), NewClient(config)}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			_, err := c.Request(context.Background(), http.MethodGet, server.URL, nil, nil)
			assert.NoError(t, err)
		}(clients[i%2])
	}
	wg.Wait()

	assert.LessOrEqual(t, tracker.peak.Load(), int32(5))
	assert.Greater(t, tracker.peak.Load(), int32(1), "requests should overlap up to the ceiling")
	assert.Equal(t, 0, gate.InFlight())
}

func TestAdmissionGate_ReleasedOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	gate := NewAdmissionGate(1)
	config := DefaultConfig()
	config.Gate = gate
	client := NewClient(config)

	for i := 0; i < 3; i++ {
		_, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)
		require.Error(t, err)
	}
	assert.Equal(t, 0, gate.InFlight())
}

func TestAdmissionGate_NotHeldDuringBackoff(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	mux.HandleFunc("/fast", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	gate := NewAdmissionGate(1)
	sleeping := make(chan struct{})
	resume := make(chan struct{})

	slowClient := NewClient(Config{
		Timeout:     20 * time.Millisecond,
		MaxAttempts: 2,
		BackoffStep: time.Second,
		Gate:        gate,
		Sleep: func(ctx context.Context, d time.Duration) error {
			close(sleeping)
			<-resume
			return nil
		},
	})
	fastClient := NewClient(Config{Timeout: time.Second, MaxAttempts: 1, Gate: gate})

	done := make(chan error, 1)
	go func() {
		_, err := slowClient.Request(context.Background(), http.MethodGet, server.URL+"/slow", nil, nil)
		done <- err
	}()

	<-sleeping
	assert.Equal(t, 0, gate.InFlight())

	resp, err := fastClient.Request(context.Background(), http.MethodGet, server.URL+"/fast", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	close(resume)
	var timeoutErr *TimeoutError
	assert.ErrorAs(t, <-done, &timeoutErr)
	assert.Equal(t, 0, gate.InFlight())
}
