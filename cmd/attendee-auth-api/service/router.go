// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
)

// NewRouter mounts the probes unauthenticated and every /auth route behind the authenticator
func NewRouter(api *AttendeeAuthAPI, authenticator port.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestIDMiddleware())

	r.Get(constants.RouteLivez, api.Livez)
	r.Get(constants.RouteReadyz, api.Readyz)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(authenticator))

		r.Get(constants.RouteAuthCheck, api.Check)
		r.Get(constants.RouteAuthInfo, api.Info)
		r.Post(constants.RouteAuthRefresh, api.Refresh)
		r.Delete(constants.RouteAuthIndex, api.ClearIndex)
	})

	return otelhttp.NewHandler(r, constants.ServiceName,
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != constants.RouteLivez && req.URL.Path != constants.RouteReadyz
		}),
	)
}
