// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package mock provides in-process stand-ins for the attendee auth ports, used
// by tests and local runs.
package mock

import (
	"context"
	"log/slog"
	"os"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

// MockAuthService grants every operator request the principal named by
// JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL. The token is not inspected.
type MockAuthService struct{}

var _ port.Authenticator = (*MockAuthService)(nil)

// NewMockAuthService creates a mock authenticator
func NewMockAuthService() port.Authenticator {
	return &MockAuthService{}
}

// ParsePrincipal returns the configured local principal, or Unauthorized when none is set
func (m *MockAuthService) ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error) {
	principal := os.Getenv(constants.EnvMockLocalPrincipal)
	if principal == "" {
		return "", errors.NewUnauthorized(constants.EnvMockLocalPrincipal + " is not set")
	}

	logger.DebugContext(ctx, "mock authenticator granted principal",
		"principal", principal,
		"token_present", token != "",
	)
	return principal, nil
}
