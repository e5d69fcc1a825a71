// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package eventbrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/httpclient"
)

// RemoteAPIError is a non-success response from Eventbrite. It is never retried.
type RemoteAPIError struct {
	StatusCode int
	Body       string
	URL        string
	err        error
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("eventbrite API error %d at %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *RemoteAPIError) Unwrap() error {
	return e.err
}

// CredentialsRejected reports whether the API refused the configured token.
func (e *RemoteAPIError) CredentialsRejected() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// MapHTTPError maps httpclient errors to Eventbrite errors with proper context logging
func MapHTTPError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		slog.WarnContext(ctx, "Eventbrite HTTP error occurred",
			"status_code", statusErr.StatusCode,
			"url", statusErr.URL,
		)
		return &RemoteAPIError{
			StatusCode: statusErr.StatusCode,
			Body:       string(statusErr.Body),
			URL:        statusErr.URL,
			err:        err,
		}
	}

	var timeoutErr *httpclient.TimeoutError
	if errors.As(err, &timeoutErr) {
		slog.WarnContext(ctx, "Eventbrite request timed out",
			"url", timeoutErr.URL,
			"attempts", timeoutErr.Attempts,
		)
		return err
	}

	slog.ErrorContext(ctx, "Eventbrite request failed with non-HTTP error",
		"error", err.Error(),
	)
	return fmt.Errorf("eventbrite request failed: %w", err)
}
