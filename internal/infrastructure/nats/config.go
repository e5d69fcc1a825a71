// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"os"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
)

// Config holds the NATS connection configuration
type Config struct {
	// URL is the NATS server URL
	URL string

	// Timeout bounds connection attempts and request/reply calls
	Timeout time.Duration

	// MaxReconnect is the number of reconnect attempts, -1 for unlimited
	MaxReconnect int

	// ReconnectWait is the delay between reconnect attempts
	ReconnectWait time.Duration

	// CredentialsFile is an optional NATS user credentials (.creds) file
	CredentialsFile string

	// Buckets lists the key-value buckets bound at connect time
	Buckets []string
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		Timeout:       10 * time.Second,
		MaxReconnect:  3,
		ReconnectWait: 2 * time.Second,
	}
}

// NewConfigFromEnv creates a Config from environment variables
func NewConfigFromEnv() Config {
	config := DefaultConfig()

	if url := os.Getenv(constants.EnvNATSURL); url != "" {
		config.URL = url
	}

	config.CredentialsFile = os.Getenv(constants.EnvNATSCredentials)

	if timeoutStr := os.Getenv("NATS_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			config.Timeout = timeout
		}
	}

	if maxStr := os.Getenv("NATS_MAX_RECONNECT"); maxStr != "" {
		if maxReconnect, err := strconv.Atoi(maxStr); err == nil {
			config.MaxReconnect = maxReconnect
		}
	}

	if waitStr := os.Getenv("NATS_RECONNECT_WAIT"); waitStr != "" {
		if wait, err := time.ParseDuration(waitStr); err == nil {
			config.ReconnectWait = wait
		}
	}

	return config
}
