// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	internalService "github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/service"
	lfxerrors "github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

// errorResponse is the body of every failed operator request
type errorResponse struct {
	Message string `json:"message"`
}

// errorStatus maps typed errors to HTTP status codes
func errorStatus(err error) int {
	if errors.Is(err, internalService.ErrRefreshInProgress) {
		return http.StatusConflict
	}

	var (
		validation   lfxerrors.Validation
		notFound     lfxerrors.NotFound
		conflict     lfxerrors.Conflict
		unauthorized lfxerrors.Unauthorized
		unavailable  lfxerrors.ServiceUnavailable
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "error", err)
	} else {
		slog.WarnContext(ctx, "request rejected", "error", err, "status", status)
	}
	writeJSON(ctx, w, status, errorResponse{Message: err.Error()})
}
