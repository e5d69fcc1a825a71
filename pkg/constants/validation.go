// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

const (
	// ChangedSinceFormat is the UTC, second-precision format Eventbrite expects for changed_since
	ChangedSinceFormat = "2006-01-02T15:04:05Z"
)

// Validation error messages
const (
	ErrEmptyEmail   = "email is required"
	ErrInvalidEmail = "no e-mail address found in input"
)
