// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package eventbrite

import (
	"net/http"

	"golang.org/x/oauth2"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
)

// tokenRoundTripper attaches the static API token to every attempt
type tokenRoundTripper struct {
	token *oauth2.Token
	mode  string
}

func newTokenRoundTripper(token, mode string) *tokenRoundTripper {
	return &tokenRoundTripper{
		token: &oauth2.Token{AccessToken: token, TokenType: "Bearer"},
		mode:  mode,
	}
}

// RoundTrip injects the token as a query parameter or an Authorization header
func (rt *tokenRoundTripper) RoundTrip(req *http.Request, next func(*http.Request) (*http.Response, error)) (*http.Response, error) {
	switch rt.mode {
	case TokenModeHeader:
		rt.token.SetAuthHeader(req)
	default:
		q := req.URL.Query()
		q.Set(constants.EventbriteParamToken, rt.token.AccessToken)
		req.URL.RawQuery = q.Encode()
	}
	return next(req)
}
