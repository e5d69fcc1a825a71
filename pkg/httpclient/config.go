// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package httpclient

import (
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/utils"
)

// Config holds the HTTP client configuration
type Config struct {
	// Timeout bounds a single attempt, response body included.
	Timeout time.Duration
	// MaxAttempts is the total number of attempts, the first one included.
	MaxAttempts int
	// BackoffStep is multiplied by the retry number to get the wait before that retry.
	BackoffStep time.Duration

	// Gate is shared by every client that must respect one concurrency ceiling.
	// A nil Gate admits every request.
	Gate *AdmissionGate
	// Transport is the base transport; http.DefaultTransport when nil.
	Transport http.RoundTripper
	// Sleep replaces the wall-clock wait between attempts.
	Sleep utils.SleepFunc
	// Observer is notified about every finished attempt.
	Observer AttemptObserver
}

// DefaultConfig returns a default configuration for the HTTP client
func DefaultConfig() Config {
	return Config{
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		BackoffStep: 2 * time.Second,
	}
}
