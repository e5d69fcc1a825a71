// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package eventbrite

import (
	"os"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

// Token placement modes
const (
	// TokenModeQuery sends the token as the token query parameter
	TokenModeQuery = "query"
	// TokenModeHeader sends the token as an Authorization bearer header
	TokenModeHeader = "header"
)

// Config holds the configuration for the Eventbrite client
type Config struct {
	// BaseURL is the Eventbrite API root, without trailing slash
	BaseURL string

	// EventID identifies the single event whose attendees are synchronized
	EventID string

	// Token is the static private API token
	Token string

	// TokenMode selects where the token is sent
	TokenMode string

	// Timeout bounds each attempt
	Timeout time.Duration

	// MaxAttempts is the total number of attempts per page, first one included
	MaxAttempts int

	// BackoffStep is multiplied by the retry number before each retry
	BackoffStep time.Duration

	// MaxConcurrentCalls is the process-wide ceiling of in-flight requests
	MaxConcurrentCalls int

	// MockMode replaces the Eventbrite API with a local fixture
	MockMode bool

	// MockFile is the YAML fixture used in mock mode
	MockFile string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:            constants.EventbriteBaseURL,
		TokenMode:          TokenModeQuery,
		Timeout:            constants.EventbriteRequestTimeout,
		MaxAttempts:        constants.EventbriteMaxAttempts,
		BackoffStep:        constants.EventbriteBackoffStep,
		MaxConcurrentCalls: constants.EventbriteMaxConcurrentCalls,
	}
}

// NewConfigFromEnv creates a Config from environment variables
func NewConfigFromEnv() Config {
	config := DefaultConfig()

	if baseURL := os.Getenv("EVENTBRITE_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}

	config.EventID = os.Getenv("EVENTBRITE_EVENT_ID")
	config.Token = os.Getenv("EVENTBRITE_TOKEN")

	if mode := os.Getenv("EVENTBRITE_TOKEN_MODE"); mode != "" {
		config.TokenMode = mode
	}

	if timeoutStr := os.Getenv("EVENTBRITE_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			config.Timeout = timeout
		}
	}

	if attemptsStr := os.Getenv("EVENTBRITE_MAX_ATTEMPTS"); attemptsStr != "" {
		if attempts, err := strconv.Atoi(attemptsStr); err == nil {
			config.MaxAttempts = attempts
		}
	}

	if stepStr := os.Getenv("EVENTBRITE_BACKOFF_STEP"); stepStr != "" {
		if step, err := time.ParseDuration(stepStr); err == nil {
			config.BackoffStep = step
		}
	}

	if concurrencyStr := os.Getenv("EVENTBRITE_CONCURRENCY"); concurrencyStr != "" {
		if concurrency, err := strconv.Atoi(concurrencyStr); err == nil {
			config.MaxConcurrentCalls = concurrency
		}
	}

	if source := os.Getenv(constants.EnvEventbriteSource); source == "mock" {
		config.MockMode = true
	}
	config.MockFile = os.Getenv("EVENTBRITE_MOCK_FILE")

	return config
}

// Validate checks the settings required to talk to the real API
func (c Config) Validate() error {
	if c.MockMode {
		return nil
	}
	if c.EventID == "" {
		return errors.NewValidation("EVENTBRITE_EVENT_ID is required")
	}
	if c.Token == "" {
		return errors.NewValidation("EVENTBRITE_TOKEN is required")
	}
	if c.TokenMode != TokenModeQuery && c.TokenMode != TokenModeHeader {
		return errors.NewValidation("EVENTBRITE_TOKEN_MODE must be query or header")
	}
	if c.MaxAttempts < 1 {
		return errors.NewValidation("EVENTBRITE_MAX_ATTEMPTS must be at least 1")
	}
	if c.MaxConcurrentCalls < 1 {
		return errors.NewValidation("EVENTBRITE_CONCURRENCY must be at least 1")
	}
	return nil
}

// PageBudget is the longest one page can take when every attempt times out,
// backoff sleeps included. Time spent waiting on the admission gate is not counted.
func (c Config) PageBudget() time.Duration {
	attempts := max(c.MaxAttempts, 1)
	budget := time.Duration(attempts) * c.Timeout
	for retry := 1; retry < attempts; retry++ {
		budget += time.Duration(retry) * c.BackoffStep
	}
	return budget
}
