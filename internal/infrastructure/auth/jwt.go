// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package auth validates operator bearer tokens issued by the platform gateway.
package auth

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

const (
	// PS256 is the signature algorithm used by Heimdall
	signatureAlgorithm = validator.PS256

	defaultIssuer   = "heimdall"
	defaultAudience = "lfx-v2-attendee-auth-service"
	defaultJWKSURL  = "http://lfx-platform-heimdall.lfx.svc.cluster.local:4457/.well-known/jwks"
	jwksCacheTTL    = 5 * time.Minute
	bearerPrefix    = "Bearer "
)

// JWTAuthConfig holds the token validation settings
type JWTAuthConfig struct {
	JWKSURL   string
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// NewConfigFromEnv reads JWKS_URL and JWT_AUDIENCE, falling back to the in-cluster defaults
func NewConfigFromEnv() JWTAuthConfig {
	config := JWTAuthConfig{
		JWKSURL:   defaultJWKSURL,
		Issuer:    defaultIssuer,
		Audience:  defaultAudience,
		ClockSkew: 30 * time.Second,
	}
	if v := os.Getenv("JWKS_URL"); v != "" {
		config.JWKSURL = v
	}
	if v := os.Getenv("JWT_AUDIENCE"); v != "" {
		config.Audience = v
	}
	return config
}

// HeimdallClaims contains extra custom claims we want to parse from the JWT token.
type HeimdallClaims struct {
	Principal string `json:"principal"`
	Email     string `json:"email,omitempty"`
}

// Validate provides additional middleware validation of any claims defined in HeimdallClaims.
func (c *HeimdallClaims) Validate(_ context.Context) error {
	if c.Principal == "" {
		return errors.NewValidation("principal must be provided")
	}
	return nil
}

// JWTAuth validates tokens against the JWKS endpoint
type JWTAuth struct {
	validator *validator.Validator
}

// NewJWTAuth creates a JWT authenticator backed by a caching JWKS provider
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	issuer, err := url.Parse(config.Issuer)
	if err != nil {
		return nil, errors.NewValidation("invalid issuer", err)
	}
	jwksURL, err := url.Parse(config.JWKSURL)
	if err != nil || jwksURL.Host == "" {
		return nil, errors.NewValidation("invalid JWKS URL", err)
	}

	provider := jwks.NewCachingProvider(issuer, jwksCacheTTL, jwks.WithCustomJWKSURI(jwksURL))

	customClaims := func() validator.CustomClaims {
		return &HeimdallClaims{}
	}

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		signatureAlgorithm,
		issuer.String(),
		[]string{config.Audience},
		validator.WithCustomClaims(customClaims),
		validator.WithAllowedClockSkew(config.ClockSkew),
	)
	if err != nil {
		return nil, errors.NewUnexpected("failed to set up the JWT validator", err)
	}

	return &JWTAuth{validator: jwtValidator}, nil
}

// ParsePrincipal validates token and returns the principal claim
func (j *JWTAuth) ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, bearerPrefix))
	if token == "" {
		return "", errors.NewUnauthorized(jwtmiddleware.ErrJWTMissing.Error())
	}

	parsed, err := j.validator.ValidateToken(ctx, token)
	if err != nil {
		logger.WarnContext(ctx, "failed to validate token", "error", err)
		return "", errors.NewUnauthorized("invalid token", err)
	}

	claims, ok := parsed.(*validator.ValidatedClaims)
	if !ok {
		return "", errors.NewUnexpected("failed to get validated authorization claims")
	}

	custom, ok := claims.CustomClaims.(*HeimdallClaims)
	if !ok {
		return "", errors.NewUnexpected("failed to get custom authorization claims")
	}

	logger.DebugContext(ctx, "parsed principal",
		"principal", custom.Principal,
		"subject", claims.RegisteredClaims.Subject,
	)

	return custom.Principal, nil
}

var _ port.Authenticator = (*JWTAuth)(nil)
