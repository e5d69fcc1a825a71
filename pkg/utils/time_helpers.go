// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"fmt"
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
)

// FormatChangedSince renders t in the UTC, second-precision form Eventbrite accepts.
func FormatChangedSince(t time.Time) string {
	return t.UTC().Format(constants.ChangedSinceFormat)
}

// FormatWatermark renders the index watermark for storage and logs. A nil
// watermark (never refreshed) renders as the empty string.
func FormatWatermark(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseWatermark is the inverse of FormatWatermark.
func ParseWatermark(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid watermark %q: %w", raw, err)
	}
	return &t, nil
}
