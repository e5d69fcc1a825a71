// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	internalService "github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	lfxerrors "github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/redaction"
)

// Directory is the attendee directory as seen by the operator surfaces
type Directory interface {
	port.AuthenticationProvider
	LastRefresh() *model.RefreshOutcome
	Refreshing() bool
	Clear(ctx context.Context) error
}

// CheckResponse answers an authentication check
type CheckResponse struct {
	Email         string `json:"email"`
	Authenticated bool   `json:"authenticated"`
}

// InfoResponse reports the index statistics and the last refresh cycle
type InfoResponse struct {
	model.IndexStats
	Refreshing  bool                  `json:"refreshing"`
	LastRefresh *model.RefreshOutcome `json:"last_refresh,omitempty"`
}

// RefreshResponse reports the cycle run by an on-demand refresh
type RefreshResponse struct {
	Outcome *model.RefreshOutcome `json:"outcome"`
	Stats   model.IndexStats      `json:"stats"`
}

// AttendeeAuthAPI serves the authentication check and the operator commands over HTTP and NATS
type AttendeeAuthAPI struct {
	directory Directory
	ready     func(ctx context.Context) error
}

// NewAttendeeAuthAPI creates the API. ready reports dependency readiness and may be nil.
func NewAttendeeAuthAPI(directory Directory, ready func(ctx context.Context) error) *AttendeeAuthAPI {
	return &AttendeeAuthAPI{
		directory: directory,
		ready:     ready,
	}
}

// Check handles GET /auth/check?email=
func (a *AttendeeAuthAPI) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response, err := a.check(ctx, r.URL.Query().Get("email"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

// Info handles GET /auth/info
func (a *AttendeeAuthAPI) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, a.info(r.Context()))
}

// Refresh handles POST /auth/refresh. It waits for the cycle and reports its outcome.
func (a *AttendeeAuthAPI) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response, err := a.refresh(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, response)
}

// ClearIndex handles DELETE /auth/index
func (a *AttendeeAuthAPI) ClearIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := a.directory.Clear(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}
	slog.InfoContext(ctx, "attendee index cleared by operator")
	w.WriteHeader(http.StatusNoContent)
}

// Livez handles GET /livez
func (a *AttendeeAuthAPI) Livez(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// Readyz handles GET /readyz
func (a *AttendeeAuthAPI) Readyz(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		if err := a.ready(r.Context()); err != nil {
			writeError(r.Context(), w, lfxerrors.NewServiceUnavailable("service not ready", err))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// HandleMessage answers a NATS request on one of the attendee auth subjects
func (a *AttendeeAuthAPI) HandleMessage(ctx context.Context, msg *nats.Msg) error {
	reply := a.Reply(ctx, msg.Subject, msg.Data)
	if msg.Reply == "" {
		slog.WarnContext(ctx, "attendee auth request without reply subject", "subject", msg.Subject)
		return nil
	}
	return msg.Respond(reply)
}

// Reply computes the JSON answer for a request payload on subject
func (a *AttendeeAuthAPI) Reply(ctx context.Context, subject string, data []byte) []byte {
	var (
		response any
		err      error
	)

	switch subject {
	case constants.AuthCheckSubject:
		email, found := model.FindEmail(string(data))
		if !found {
			err = lfxerrors.NewValidation(constants.ErrInvalidEmail)
			break
		}
		response, err = a.check(ctx, email)
	case constants.AuthRefreshSubject:
		response, err = a.refresh(ctx)
	case constants.AuthInfoSubject:
		response = a.info(ctx)
	default:
		err = lfxerrors.NewNotFound("unknown subject: " + subject)
	}

	if err != nil {
		slog.WarnContext(ctx, "attendee auth request failed", "subject", subject, "error", err)
		response = errorResponse{Message: err.Error()}
	}

	payload, marshalErr := json.Marshal(response)
	if marshalErr != nil {
		slog.ErrorContext(ctx, "failed to marshal reply", "subject", subject, "error", marshalErr)
		return []byte(`{"message":"internal error"}`)
	}
	return payload
}

func (a *AttendeeAuthAPI) check(ctx context.Context, email string) (*CheckResponse, error) {
	normalized := model.NormalizeEmail(email)
	if normalized == "" {
		return nil, lfxerrors.NewValidation(constants.ErrEmptyEmail)
	}

	authenticated := a.directory.Authenticate(ctx, normalized)
	slog.InfoContext(ctx, "authentication check",
		"email", redaction.RedactEmail(normalized),
		"authenticated", authenticated,
	)
	return &CheckResponse{Email: normalized, Authenticated: authenticated}, nil
}

func (a *AttendeeAuthAPI) info(ctx context.Context) *InfoResponse {
	return &InfoResponse{
		IndexStats:  a.directory.Stats(ctx),
		Refreshing:  a.directory.Refreshing(),
		LastRefresh: a.directory.LastRefresh(),
	}
}

func (a *AttendeeAuthAPI) refresh(ctx context.Context) (*RefreshResponse, error) {
	// the cycle must not be cut short by the requester going away
	if err := a.directory.Refresh(context.WithoutCancel(ctx)); err != nil {
		if errors.Is(err, internalService.ErrRefreshInProgress) {
			return nil, err
		}
		return nil, lfxerrors.NewUnexpected("attendee refresh failed", err)
	}
	return &RefreshResponse{
		Outcome: a.directory.LastRefresh(),
		Stats:   a.directory.Stats(ctx),
	}, nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
