// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"
	"log/slog"
)

// Authenticator validates operator credentials on the management surfaces.
type Authenticator interface {
	// ParsePrincipal validates a bearer token and returns the principal it identifies.
	ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error)
}
