// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
)

// EventPublisher announces index changes to downstream consumers.
type EventPublisher interface {
	// IndexUpdated is published after a refresh cycle that added attendees or after a clear.
	IndexUpdated(ctx context.Context, event model.IndexUpdatedEvent) error
}
