// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package eventbrite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/httpclient"
)

// fakeEventbrite serves paginated attendee listings for a single event.
type fakeEventbrite struct {
	t         *testing.T
	eventID   string
	pages     map[int][]AttendeeObject
	pageCount int
	// hasMore overrides has_more_items on the first page when set
	hasMore *bool
	// failPage answers the given page with failStatus
	failPage   int
	failStatus int
	hold       time.Duration

	mu       sync.Mutex
	requests []*http.Request

	current atomic.Int32
	peak    atomic.Int32
}

func (f *fakeEventbrite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	f.mu.Unlock()

	n := f.current.Add(1)
	defer f.current.Add(-1)
	for {
		old := f.peak.Load()
		if n <= old || f.peak.CompareAndSwap(old, n) {
			break
		}
	}
	if f.hold > 0 {
		time.Sleep(f.hold)
	}

	if r.URL.Path != fmt.Sprintf("/v3/events/%s/attendees/", f.eventID) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "NOT_FOUND"}`))
		return
	}

	page := 1
	if c := r.URL.Query().Get("continuation"); c != "" {
		decoded, err := DecodeContinuation(c)
		assert.NoError(f.t, err)
		page = decoded
	}

	if page == f.failPage {
		w.WriteHeader(f.failStatus)
		_, _ = w.Write([]byte(`{"error": "INTERNAL_ERROR", "error_description": "boom"}`))
		return
	}

	hasMore := page < f.pageCount
	if page == 1 && f.hasMore != nil {
		hasMore = *f.hasMore
	}

	resp := AttendeeListResponse{
		Pagination: Pagination{
			ObjectCount:  len(f.pages[page]),
			PageNumber:   page,
			PageSize:     50,
			PageCount:    f.pageCount,
			HasMoreItems: hasMore,
		},
		Attendees: f.pages[page],
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeEventbrite) recorded() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

func attendeePage(page, size int) []AttendeeObject {
	out := make([]AttendeeObject, 0, size)
	for i := 0; i < size; i++ {
		out = append(out, AttendeeObject{
			ID:     fmt.Sprintf("%d-%d", page, i),
			Status: "Attending",
			Profile: ProfileObject{
				Name:  fmt.Sprintf("Attendee %d-%d", page, i),
				Email: fmt.Sprintf("Attendee.%d.%d@Example.com", page, i),
			},
		})
	}
	return out
}

func newFake(t *testing.T, pageCount, pageSize int) *fakeEventbrite {
	pages := make(map[int][]AttendeeObject, pageCount)
	for p := 1; p <= pageCount; p++ {
		pages[p] = attendeePage(p, pageSize)
	}
	return &fakeEventbrite{t: t, eventID: "123", pages: pages, pageCount: pageCount}
}

func newTestClient(t *testing.T, baseURL string, gate *httpclient.AdmissionGate, mutate func(*Config), opts ...Option) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL + "/v3"
	cfg.EventID = "123"
	cfg.Token = "secret-token"
	cfg.Timeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := NewClient(cfg, gate, opts...)
	require.NoError(t, err)
	return client
}

func emails(attendees []model.Attendee) []string {
	out := make([]string, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, a.Email)
	}
	sort.Strings(out)
	return out
}

func TestListAttendees_SinglePage(t *testing.T) {
	fake := newFake(t, 1, 3)
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL, httpclient.NewAdmissionGate(5), nil)

	attendees, err := client.ListAttendees(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, attendees, 3)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	q := reqs[0].URL.Query()
	assert.Equal(t, "attending", q.Get("status"))
	assert.Equal(t, "secret-token", q.Get("token"))
	assert.False(t, q.Has("changed_since"))
	assert.False(t, q.Has("continuation"))

	assert.Equal(t, "attendee.1.0@example.com", attendees[0].Email)
	assert.Equal(t, "attending", attendees[0].Status)
	assert.Equal(t, "1-0", attendees[0].TicketID)
	assert.Equal(t, "Attendee 1-0", attendees[0].Name)
}

func TestListAttendees_FanOutCoversEveryPageOnce(t *testing.T) {
	fake := newFake(t, 4, 2)
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL, httpclient.NewAdmissionGate(5), nil)
	since := time.Date(2024, 3, 9, 17, 4, 5, 123000000, time.UTC)

	attendees, err := client.ListAttendees(context.Background(), &since)
	require.NoError(t, err)
	assert.Len(t, attendees, 8)

	reqs := fake.recorded()
	require.Len(t, reqs, 4)

	pagesSeen := map[int]int{}
	for _, r := range reqs {
		q := r.URL.Query()
		assert.Equal(t, "attending", q.Get("status"))
		assert.Equal(t, "2024-03-09T17:04:05Z", q.Get("changed_since"), "every page carries the same filter")

		page := 1
		if c := q.Get("continuation"); c != "" {
			decoded, err := DecodeContinuation(c)
			require.NoError(t, err)
			page = decoded
		}
		pagesSeen[page]++
	}
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1}, pagesSeen)

	var expected []string
	for p := 1; p <= 4; p++ {
		for i := 0; i < 2; i++ {
			expected = append(expected, fmt.Sprintf("attendee.%d.%d@example.com", p, i))
		}
	}
	sort.Strings(expected)
	assert.Equal(t, expected, emails(attendees))
}

func TestListAttendees_HasMoreButNoFurtherPages(t *testing.T) {
	fake := newFake(t, 1, 2)
	hasMore := true
	fake.hasMore = &hasMore
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL, httpclient.NewAdmissionGate(5), nil)

	attendees, err := client.ListAttendees(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, attendees, 2)
	assert.Len(t, fake.recorded(), 1)
}

func TestListAttendees_EmptyFirstPage(t *testing.T) {
	fake := newFake(t, 1, 0)
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL, httpclient.NewAdmissionGate(5), nil)

	attendees, err := client.ListAttendees(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, attendees)
}

func TestListAttendees_PageFailureFailsWholeListing(t *testing.T) {
	fake := newFake(t, 5, 2)
	fake.failPage = 3
	fake.failStatus = http.StatusInternalServerError
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL, httpclient.NewAdmissionGate(5), nil)

	attendees, err := client.ListAttendees(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, attendees)

	var apiErr *RemoteAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "INTERNAL_ERROR")
	assert.NotContains(t, apiErr.URL, "secret-token", "token must not leak into errors")
	assert.False(t, apiErr.CredentialsRejected())
}

func TestListAttendees_FirstPageUnauthorized(t *testing.T) {
	fake := newFake(t, 3, 2)
	fake.failPage = 1
	fake.failStatus = http.StatusUnauthorized
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL, httpclient.NewAdmissionGate(5), nil)

	_, err := client.ListAttendees(context.Background(), nil)

	var apiErr *RemoteAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.CredentialsRejected())
	assert.Len(t, fake.recorded(), 1, "no fan-out after a failed first page")
}

func TestListAttendees_ConcurrencyBoundedByGate(t *testing.T) {
	fake := newFake(t, 12, 1)
	fake.hold = 20 * time.Millisecond
	server := httptest.NewServer(fake)
	defer server.Close()

	gate := httpclient.NewAdmissionGate(5)
	client := newTestClient(t, server.URL, gate, nil)

	attendees, err := client.ListAttendees(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, attendees, 12)
	assert.LessOrEqual(t, fake.peak.Load(), int32(5))
	assert.Equal(t, 0, gate.InFlight())
}

func TestListAttendees_TimeoutExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-r.Context().Done()
	}))
	defer server.Close()

	var (
		mu    sync.Mutex
		waits []time.Duration
	)
	sleep := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		waits = append(waits, d)
		return nil
	}

	client := newTestClient(t, server.URL, httpclient.NewAdmissionGate(5), func(c *Config) {
		c.Timeout = 20 * time.Millisecond
	}, WithSleep(sleep))

	_, err := client.ListAttendees(context.Background(), nil)

	var timeoutErr *httpclient.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 3, timeoutErr.Attempts)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
	assert.NotContains(t, err.Error(), "secret-token", "token must not leak into errors")
}

func TestListAttendees_HeaderTokenMode(t *testing.T) {
	fake := newFake(t, 1, 1)
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL, nil, func(c *Config) {
		c.TokenMode = TokenModeHeader
	})

	_, err := client.ListAttendees(context.Background(), nil)
	require.NoError(t, err)

	reqs := fake.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer secret-token", reqs[0].Header.Get("Authorization"))
	assert.False(t, reqs[0].URL.Query().Has("token"))
}

func TestListAttendees_SkipsRecordsWithoutEmail(t *testing.T) {
	fake := newFake(t, 1, 0)
	fake.pages[1] = []AttendeeObject{
		{ID: "1", Profile: ProfileObject{Email: "ok@example.com"}, Changed: "2024-02-01T10:00:00Z"},
		{ID: "2", Profile: ProfileObject{Email: ""}},
		{ID: "3", Profile: ProfileObject{Email: "  "}},
	}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server.URL, nil, nil)

	attendees, err := client.ListAttendees(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	assert.Equal(t, "ok@example.com", attendees[0].Email)
	require.NotNil(t, attendees[0].ChangedAt)
	assert.True(t, attendees[0].ChangedAt.Equal(time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)))
}

func TestListAttendees_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil, nil)

	_, err := client.ListAttendees(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse attendee page")
}

func TestNewClient_ValidatesConfig(t *testing.T) {
	_, err := NewClient(Config{TokenMode: TokenModeQuery, MaxAttempts: 3, MaxConcurrentCalls: 5}, nil)
	require.Error(t, err)
}

func TestMapHTTPError(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, MapHTTPError(ctx, nil))

	timeoutErr := &httpclient.TimeoutError{URL: "u", Attempts: 3, Err: context.DeadlineExceeded}
	assert.Same(t, timeoutErr, MapHTTPError(ctx, timeoutErr))

	statusErr := &httpclient.StatusError{StatusCode: 403, Body: []byte("denied"), URL: "u"}
	mapped := MapHTTPError(ctx, fmt.Errorf("wrapped: %w", statusErr))
	var apiErr *RemoteAPIError
	require.ErrorAs(t, mapped, &apiErr)
	assert.Equal(t, "denied", apiErr.Body)
	assert.True(t, errors.Is(mapped, statusErr))

	other := MapHTTPError(ctx, errors.New("dial tcp: connection refused"))
	assert.Contains(t, other.Error(), "eventbrite request failed")
}
