// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// AuthorizationHeader is the header name for the authorization
const AuthorizationHeader string = "authorization"

// Operator HTTP routes
const (
	RouteLivez       = "/livez"
	RouteReadyz      = "/readyz"
	RouteAuthCheck   = "/auth/check"
	RouteAuthInfo    = "/auth/info"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthIndex   = "/auth/index"
)
