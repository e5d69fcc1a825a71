// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package constants defines global constants used throughout the attendee auth service.
package constants

// Service constants
const (
	// ServiceName is the name of this service
	ServiceName = "attendee-auth"
)

// HTTP header constants
const (
	// RequestIDHeader is the HTTP header name for request ID
	RequestIDHeader = "X-Request-Id"
)

// NATS messaging subjects served by this service
const (
	// AuthCheckSubject answers whether an e-mail belongs to a ticket holder
	AuthCheckSubject = "lfx.attendee-auth.check"
	// AuthRefreshSubject triggers an on-demand directory refresh
	AuthRefreshSubject = "lfx.attendee-auth.refresh"
	// AuthInfoSubject returns the index statistics
	AuthInfoSubject = "lfx.attendee-auth.info"

	// IndexUpdatedSubject announces index content changes
	IndexUpdatedSubject = "lfx.attendee-auth.index_updated"
)

// Environment variables
const (
	// EnvNATSURL is the environment variable for NATS server URL
	EnvNATSURL = "NATS_URL"
	// EnvNATSCredentials is the environment variable for NATS credentials
	EnvNATSCredentials = "NATS_CREDENTIALS"

	// EnvEventbriteSource selects the attendee source implementation
	EnvEventbriteSource = "EVENTBRITE_SOURCE"
	// EnvIndexSource selects the index persistence backend
	EnvIndexSource = "INDEX_SOURCE"
	// EnvIndexCacheEnabled turns index persistence on or off
	EnvIndexCacheEnabled = "INDEX_CACHE_ENABLED"
	// EnvIndexPath is the snapshot location for the file backend
	EnvIndexPath = "INDEX_PATH"
	// EnvAuthSource selects the operator authenticator implementation
	EnvAuthSource = "AUTH_SOURCE"
	// EnvMockLocalPrincipal is the principal the mock authenticator grants
	EnvMockLocalPrincipal = "JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL"
	// EnvEventPublisher selects the index event publisher implementation
	EnvEventPublisher = "EVENT_PUBLISHER"
	// EnvRefreshInterval overrides the periodic refresh interval
	EnvRefreshInterval = "REFRESH_INTERVAL"
)
