// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package port defines the interfaces the service layer depends on.
package port

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
)

// AttendeeLister fetches attending ticket holders from the source of truth.
type AttendeeLister interface {
	// ListAttendees returns every attendee, or only those changed at or after since when it is non-nil.
	// A failure on any page fails the whole listing.
	ListAttendees(ctx context.Context, since *time.Time) ([]model.Attendee, error)
}
