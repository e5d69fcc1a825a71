// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep captures backoff waits without blocking.
type recordingSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func (r *recordingSleep) total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum time.Duration
	for _, w := range r.waits {
		sum += w
	}
	return sum
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) RecordAttempt(_ context.Context, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

// blockingHandler never answers before the request context ends.
func blockingHandler(hits *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 10*time.Second, config.Timeout)
	assert.Equal(t, 3, config.MaxAttempts)
	assert.Equal(t, 2*time.Second, config.BackoffStep)
	assert.Nil(t, config.Gate)
}

func TestNewClient_MinimumOneAttempt(t *testing.T) {
	client := NewClient(Config{})
	assert.Equal(t, 1, client.config.MaxAttempts)
	assert.NotNil(t, client.httpClient.Transport)
}

func TestClient_Get_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "custom-value", r.Header.Get("Custom-Header"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "success"}`))
	}))
	defer server.Close()

	client := NewClient(DefaultConfig())

	resp, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, map[string]string{
		"Custom-Header": "custom-value",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"message": "success"}`, string(resp.Body))
}

func TestClient_StatusErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"error": "not found"}`},
		{"unauthorized", http.StatusUnauthorized, `{"error": "INVALID_AUTH"}`},
		{"rate limited", http.StatusTooManyRequests, `{"error": "HIT_RATE_LIMIT"}`},
		{"server error", http.StatusInternalServerError, `{"error": "INTERNAL_ERROR"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			rec := &recordingSleep{}
			config := DefaultConfig()
			config.Sleep = rec.sleep
			client := NewClient(config)

			_, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.body, string(statusErr.Body))
			assert.Equal(t, server.URL, statusErr.URL)
			assert.Equal(t, int32(1), hits.Load())
			assert.Empty(t, rec.waits)
		})
	}
}

func TestClient_TimeoutRetriesWithLinearBackoff(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(blockingHandler(&hits))
	defer server.Close()

	rec := &recordingSleep{}
	client := NewClient(Config{
		Timeout:     30 * time.Millisecond,
		MaxAttempts: 3,
		BackoffStep: 2 * time.Second,
		Sleep:       rec.sleep,
	})

	_, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 3, timeoutErr.Attempts)
	assert.Equal(t, server.URL, timeoutErr.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.waits)
	assert.Equal(t, 6*time.Second, rec.total())
}

func TestClient_TimeoutThenSuccess(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"q": 1}`, string(body), "body must be replayed on every attempt")

		if hits.Add(1) == 1 {
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte(`ok`))
	}))
	defer server.Close()

	rec := &recordingSleep{}
	client := NewClient(Config{
		Timeout:     50 * time.Millisecond,
		MaxAttempts: 3,
		BackoffStep: 2 * time.Second,
		Sleep:       rec.sleep,
	})

	resp, err := client.Request(context.Background(), http.MethodPost, server.URL, strings.NewReader(`{"q": 1}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.waits)
}

func TestClient_TransportErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	rec := &recordingSleep{}

	client := NewClient(Config{
		Timeout:     time.Second,
		MaxAttempts: 3,
		BackoffStep: time.Second,
		Sleep:       rec.sleep,
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls.Add(1)
			return nil, errors.New("connection reset by peer")
		}),
	})

	_, err := client.Request(context.Background(), http.MethodGet, "http://eventbrite.invalid/v3", nil, nil)

	require.Error(t, err)
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
	assert.Contains(t, err.Error(), "connection reset by peer")
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, rec.waits)
}

func TestClient_CancelledDuringBackoff(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(blockingHandler(&hits))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(Config{
		Timeout:     20 * time.Millisecond,
		MaxAttempts: 3,
		BackoffStep: time.Hour,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			<-ctx.Done()
			return ctx.Err()
		},
	})

	_, err := client.Request(ctx, http.MethodGet, server.URL, nil, nil)

	require.ErrorIs(t, err, context.Canceled)
	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_ParentDeadlineNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(blockingHandler(&hits))
	defer server.Close()

	rec := &recordingSleep{}
	client := NewClient(Config{
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		BackoffStep: time.Second,
		Sleep:       rec.sleep,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.Request(ctx, http.MethodGet, server.URL, nil, nil)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), hits.Load())
	assert.Empty(t, rec.waits)
}

func TestClient_ObserverOutcomes(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 1:
			<-r.Context().Done()
		case 2:
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	obs := &recordingObserver{}
	rec := &recordingSleep{}
	client := NewClient(Config{
		Timeout:     30 * time.Millisecond,
		MaxAttempts: 3,
		Sleep:       rec.sleep,
		Observer:    obs,
	})

	_, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)
	require.Error(t, err)

	_, err = client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{OutcomeTimeout, OutcomeStatus, OutcomeSuccess}, obs.outcomes)
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"test": "data"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(DefaultConfig())

	resp, err := client.Request(context.Background(), http.MethodPost, server.URL, strings.NewReader(`{"test": "data"}`), map[string]string{
		"Content-Type": "application/json",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestClient_RedirectNotFollowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved" {
			t.Error("redirect must not be followed")
		}
		http.Redirect(w, r, "/moved", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(DefaultConfig())

	resp, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

// headerRoundTripper stamps a header and records that it ran.
type headerRoundTripper struct {
	name   string
	called atomic.Int32
	order  *[]string
	mu     *sync.Mutex
}

func (h *headerRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	h.called.Add(1)
	if h.mu != nil {
		h.mu.Lock()
		*h.order = append(*h.order, h.name)
		h.mu.Unlock()
	}
	req.Header.Add("X-Chain", h.name)
	return next(req)
}

func TestClient_AddRoundTripper(t *testing.T) {
	client := NewClient(DefaultConfig())
	client.AddRoundTripper(&headerRoundTripper{name: "a"})

	assert.Len(t, client.roundTrippers, 1)
}

func TestClient_RoundTripperChainOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"first", "second"}, r.Header.Values("X-Chain"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var (
		mu    sync.Mutex
		order []string
	)
	first := &headerRoundTripper{name: "first", order: &order, mu: &mu}
	second := &headerRoundTripper{name: "second", order: &order, mu: &mu}

	client := NewClient(DefaultConfig())
	client.AddRoundTripper(first)
	client.AddRoundTripper(second)

	_, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestClient_RoundTripperRunsOnEveryAttempt(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stamp", r.Header.Get("X-Chain"))
		if hits.Add(1) == 1 {
			<-r.Context().Done()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rec := &recordingSleep{}
	client := NewClient(Config{Timeout: 30 * time.Millisecond, MaxAttempts: 2, Sleep: rec.sleep})
	stamp := &headerRoundTripper{name: "stamp"}
	client.AddRoundTripper(stamp)

	_, err := client.Request(context.Background(), http.MethodGet, server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stamp.called.Load())
}

type queryTokenRoundTripper struct {
	token string
}

func (q queryTokenRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	values := req.URL.Query()
	values.Set("token", q.token)
	req.URL.RawQuery = values.Encode()
	return next(req)
}

func TestClient_TransportErrorsOmitRoundTripperQuery(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(blockingHandler(&hits))
	defer server.Close()

	rec := &recordingSleep{}
	client := NewClient(Config{Timeout: 20 * time.Millisecond, MaxAttempts: 2, Sleep: rec.sleep})
	client.AddRoundTripper(queryTokenRoundTripper{token: "secret-token"})

	target := server.URL + "/attendees/?status=attending"
	_, err := client.Request(context.Background(), http.MethodGet, target, nil, nil)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.Contains(t, err.Error(), "status=attending")
	assert.Equal(t, int32(2), hits.Load())
}
