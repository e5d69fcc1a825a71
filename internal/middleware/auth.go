// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/log"
)

// AuthMiddleware rejects requests whose bearer token the authenticator does not accept.
// The principal is stored in the request context.
func AuthMiddleware(authenticator port.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, err := authenticator.ParsePrincipal(ctx, r.Header.Get(constants.AuthorizationHeader), slog.Default())
			if err != nil {
				slog.WarnContext(ctx, "operator request rejected", "error", err, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "unauthorized"})
				return
			}

			ctx = context.WithValue(ctx, constants.PrincipalContextID, principal)
			ctx = log.AppendCtx(ctx, slog.String("principal", principal))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Principal returns the principal stored by AuthMiddleware
func Principal(ctx context.Context) string {
	principal, _ := ctx.Value(constants.PrincipalContextID).(string)
	return principal
}
