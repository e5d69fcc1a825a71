// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package eventbrite provides the Eventbrite attendee listing client.
package eventbrite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/httpclient"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/redaction"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/utils"
)

const tracerName = "github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/infrastructure/eventbrite"

// Client lists attendees of one Eventbrite event
type Client struct {
	config     Config
	httpClient *httpclient.Client
	tracer     trace.Tracer
}

// Option customizes the underlying HTTP client
type Option func(*httpclient.Config)

// WithObserver reports every HTTP attempt outcome
func WithObserver(observer httpclient.AttemptObserver) Option {
	return func(c *httpclient.Config) {
		c.Observer = observer
	}
}

// WithSleep replaces the wait between retry attempts
func WithSleep(sleep utils.SleepFunc) Option {
	return func(c *httpclient.Config) {
		c.Sleep = sleep
	}
}

// WithTransport replaces the base HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *httpclient.Config) {
		c.Transport = rt
	}
}

// NewClient creates an Eventbrite client sharing the given admission gate.
func NewClient(cfg Config, gate *httpclient.AdmissionGate, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpConfig := httpclient.Config{
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		BackoffStep: cfg.BackoffStep,
		Gate:        gate,
	}
	for _, opt := range opts {
		opt(&httpConfig)
	}

	client := &Client{
		config:     cfg,
		httpClient: httpclient.NewClient(httpConfig),
		tracer:     otel.Tracer(tracerName),
	}
	client.httpClient.AddRoundTripper(newTokenRoundTripper(cfg.Token, cfg.TokenMode))

	slog.InfoContext(context.Background(), "Eventbrite client initialized",
		"event_id", cfg.EventID,
		"token_mode", cfg.TokenMode,
		"max_concurrent_calls", gate.Capacity(),
	)

	return client, nil
}

// ListAttendees returns all attending ticket holders, or only those changed since the watermark.
// The first page is fetched synchronously; the remaining pages are fetched concurrently and
// any page failure fails the whole listing.
func (c *Client) ListAttendees(ctx context.Context, since *time.Time) ([]model.Attendee, error) {
	ctx, span := c.tracer.Start(ctx, "eventbrite.ListAttendees")
	defer span.End()

	params := listAttendeesParams{Status: constants.EventbriteStatusAttending}
	if since != nil {
		params.ChangedSince = utils.FormatChangedSince(*since)
	}

	attendees, err := c.listAttendees(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("eventbrite.delta", since != nil),
		attribute.Int("eventbrite.attendees", len(attendees)),
	)
	return attendees, nil
}

func (c *Client) listAttendees(ctx context.Context, params listAttendeesParams) ([]model.Attendee, error) {
	first, err := c.fetchPage(ctx, params)
	if err != nil {
		return nil, err
	}

	attendees := c.convert(ctx, first.Attendees)

	pg := first.Pagination
	if !pg.HasMoreItems || pg.PageCount <= pg.PageNumber {
		slog.DebugContext(ctx, "attendee listing fits in one page",
			"page_number", pg.PageNumber,
			"page_count", pg.PageCount,
			"attendees", len(attendees),
		)
		return attendees, nil
	}

	start := pg.PageNumber + 1
	pages := make([][]model.Attendee, pg.PageCount-pg.PageNumber)

	g, gctx := errgroup.WithContext(ctx)
	for page := start; page <= pg.PageCount; page++ {
		g.Go(func() error {
			pageParams := params
			pageParams.Continuation = EncodeContinuation(page)

			resp, err := c.fetchPage(gctx, pageParams)
			if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
			pages[page-start] = c.convert(gctx, resp.Attendees)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range pages {
		attendees = append(attendees, p...)
	}

	slog.DebugContext(ctx, "attendee listing fetched",
		"page_count", pg.PageCount,
		"attendees", len(attendees),
	)
	return attendees, nil
}

// fetchPage performs one page request through the gated, retrying HTTP client.
func (c *Client) fetchPage(ctx context.Context, params listAttendeesParams) (*AttendeeListResponse, error) {
	values, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attendee query: %w", err)
	}

	reqURL := strings.TrimRight(c.config.BaseURL, "/") +
		fmt.Sprintf(constants.EventbriteAttendeesPath, c.config.EventID) +
		"?" + values.Encode()

	resp, err := c.httpClient.Request(ctx, http.MethodGet, reqURL, nil, nil)
	if err != nil {
		return nil, MapHTTPError(ctx, err)
	}

	var page AttendeeListResponse
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse attendee page: %w", err)
	}
	return &page, nil
}

func (c *Client) convert(ctx context.Context, records []AttendeeObject) []model.Attendee {
	out := make([]model.Attendee, 0, len(records))
	for _, record := range records {
		attendee, err := record.ToModel()
		if err != nil {
			slog.WarnContext(ctx, "skipping attendee record without e-mail",
				"attendee_id", record.ID,
				"email", redaction.RedactEmail(record.Profile.Email),
			)
			continue
		}
		out = append(out, attendee)
	}
	return out
}

var _ port.AttendeeLister = (*Client)(nil)
