// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
)

// AttendeeIndexStore persists the attendee index between process restarts.
type AttendeeIndexStore interface {
	// Load returns the last saved snapshot, or an empty one when nothing was saved yet.
	Load(ctx context.Context) (*model.IndexSnapshot, error)
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snapshot *model.IndexSnapshot) error
	// Clear removes the stored snapshot.
	Clear(ctx context.Context) error
}
