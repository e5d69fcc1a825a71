// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "time"

// Eventbrite API defaults
const (
	// EventbriteBaseURL is the public Eventbrite v3 API root
	EventbriteBaseURL = "https://www.eventbriteapi.com/v3"

	// EventbriteAttendeesPath is the attendee listing path for an event
	EventbriteAttendeesPath = "/events/%s/attendees/"

	// EventbriteStatusAttending is the only attendee status this service ingests
	EventbriteStatusAttending = "attending"

	// EventbriteMaxConcurrentCalls bounds in-flight Eventbrite requests process-wide
	EventbriteMaxConcurrentCalls = 5

	// EventbriteRequestTimeout is the per-attempt deadline
	EventbriteRequestTimeout = 10 * time.Second

	// EventbriteMaxAttempts is the total number of attempts per request, first one included
	EventbriteMaxAttempts = 3

	// EventbriteBackoffStep is multiplied by the attempt number before each retry
	EventbriteBackoffStep = 2 * time.Second
)

// Eventbrite query parameters
const (
	EventbriteParamToken        = "token"
	EventbriteParamStatus       = "status"
	EventbriteParamContinuation = "continuation"
	EventbriteParamChangedSince = "changed_since"
)
