// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
)

// AuthenticationProvider answers whether an e-mail belongs to a ticket holder.
type AuthenticationProvider interface {
	// Refresh synchronizes the local directory with the source of truth.
	Refresh(ctx context.Context) error
	// Authenticate reports whether email is a known attendee. It never touches the network.
	Authenticate(ctx context.Context, email string) bool
	// Stats returns the directory size and watermark.
	Stats(ctx context.Context) model.IndexStats
}
