// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

// attendeeFixture is the YAML layout read by NewAttendeeListerFromFile
type attendeeFixture struct {
	Attendees []model.Attendee `yaml:"attendees"`
}

// MockAttendeeLister serves a fixed attendee list in place of the Eventbrite API
type MockAttendeeLister struct {
	mu        sync.Mutex
	attendees []model.Attendee
	err       error
	calls     []*time.Time
}

var _ port.AttendeeLister = (*MockAttendeeLister)(nil)

// NewMockAttendeeLister creates a lister returning attendees
func NewMockAttendeeLister(attendees ...model.Attendee) *MockAttendeeLister {
	return &MockAttendeeLister{attendees: attendees}
}

// NewAttendeeListerFromFile loads a YAML fixture of the form `attendees: [{email: ..., changed_at: ...}]`
func NewAttendeeListerFromFile(path string) (*MockAttendeeLister, error) {
	lister := NewMockAttendeeLister()
	if path == "" {
		return lister, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewUnexpected("failed to read attendee fixture", err)
	}

	var fixture attendeeFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, errors.NewUnexpected("failed to decode attendee fixture", err)
	}

	for _, a := range fixture.Attendees {
		attendee, err := model.NewAttendee(a.Email, a.Status)
		if err != nil {
			slog.Warn("skipping fixture attendee without e-mail", "path", path)
			continue
		}
		attendee.Name, attendee.TicketID, attendee.OrderID = a.Name, a.TicketID, a.OrderID
		attendee.TicketClass, attendee.ChangedAt = a.TicketClass, a.ChangedAt
		lister.attendees = append(lister.attendees, attendee)
	}
	return lister, nil
}

// ListAttendees returns the configured attendees, filtered by ChangedAt when since is set
func (m *MockAttendeeLister) ListAttendees(ctx context.Context, since *time.Time) ([]model.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if since != nil {
		s := *since
		m.calls = append(m.calls, &s)
	} else {
		m.calls = append(m.calls, nil)
	}

	if m.err != nil {
		return nil, m.err
	}

	result := make([]model.Attendee, 0, len(m.attendees))
	for _, attendee := range m.attendees {
		if since != nil && attendee.ChangedAt != nil && attendee.ChangedAt.Before(*since) {
			continue
		}
		result = append(result, attendee)
	}

	slog.DebugContext(ctx, "mock attendee listing",
		"returned", len(result),
		"delta", since != nil,
	)
	return result, nil
}

// SetAttendees replaces the served attendee list
func (m *MockAttendeeLister) SetAttendees(attendees ...model.Attendee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendees = attendees
}

// SetError makes ListAttendees fail with err until reset with nil
func (m *MockAttendeeLister) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the since argument of every ListAttendees call
func (m *MockAttendeeLister) Calls() []*time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*time.Time(nil), m.calls...)
}
