// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package model defines the domain models and entities for the attendee auth service.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"strings"
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

// Attendee is a ticket holder of the configured event.
// Email is normalized and is the uniqueness key of the index.
type Attendee struct {
	Email  string `json:"email" msgpack:"email" yaml:"email"`
	Status string `json:"status" msgpack:"status" yaml:"status"`

	// Pass-through fields from the source record
	Name        string     `json:"name,omitempty" msgpack:"name,omitempty" yaml:"name,omitempty"`
	TicketID    string     `json:"ticket_id,omitempty" msgpack:"ticket_id,omitempty" yaml:"ticket_id,omitempty"`
	OrderID     string     `json:"order_id,omitempty" msgpack:"order_id,omitempty" yaml:"order_id,omitempty"`
	TicketClass string     `json:"ticket_class,omitempty" msgpack:"ticket_class,omitempty" yaml:"ticket_class,omitempty"`
	ChangedAt   *time.Time `json:"changed_at,omitempty" msgpack:"changed_at,omitempty" yaml:"changed_at,omitempty"`
}

// NormalizeEmail lowercases and trims an address. Lookups and inserts both go through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewAttendee builds an Attendee with a normalized e-mail. Status defaults to attending.
func NewAttendee(email, status string) (Attendee, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return Attendee{}, errors.NewValidation(constants.ErrEmptyEmail)
	}
	if status == "" {
		status = constants.EventbriteStatusAttending
	}
	return Attendee{Email: normalized, Status: status}, nil
}

// BuildIndexKey generates a SHA-256 hash of the normalized e-mail for use as a storage key.
func (a Attendee) BuildIndexKey() string {
	hash := sha256.Sum256([]byte(NormalizeEmail(a.Email)))
	return hex.EncodeToString(hash[:])
}

// IndexSnapshot is the durable form of the lookup index.
type IndexSnapshot struct {
	Entries   map[string]Attendee `json:"entries" msgpack:"entries"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty" msgpack:"updated_at,omitempty"`
}

// NewIndexSnapshot returns an empty snapshot with no watermark.
func NewIndexSnapshot() *IndexSnapshot {
	return &IndexSnapshot{Entries: make(map[string]Attendee)}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *IndexSnapshot) Clone() *IndexSnapshot {
	if s == nil {
		return NewIndexSnapshot()
	}

	out := &IndexSnapshot{Entries: make(map[string]Attendee, len(s.Entries))}
	maps.Copy(out.Entries, s.Entries)
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// IndexStats is a read-only view of the index size and watermark.
type IndexStats struct {
	Attendees int        `json:"attendees"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// RefreshOutcome describes the last completed refresh cycle.
type RefreshOutcome struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Success    bool      `json:"success"`
	Received   int       `json:"received"`
	Error      string    `json:"error,omitempty"`
}

// Index update actions
const (
	IndexActionRefreshed = "refreshed"
	IndexActionCleared   = "cleared"
)

// IndexUpdatedEvent is published whenever the index content changes.
type IndexUpdatedEvent struct {
	Action    string     `json:"action"`
	Received  int        `json:"received"`
	Attendees int        `json:"attendees"`
	UpdatedAt *time.Time `json:"updated_at"`
}
