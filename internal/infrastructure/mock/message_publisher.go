// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
)

// MockEventPublisher records published events and logs them
type MockEventPublisher struct {
	mu     sync.Mutex
	events []model.IndexUpdatedEvent
	err    error
}

// Ensure MockEventPublisher implements the EventPublisher interface
var _ port.EventPublisher = (*MockEventPublisher)(nil)

// NewMockEventPublisher creates a new mock publisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// IndexUpdated records the event (mock implementation - logs only)
func (m *MockEventPublisher) IndexUpdated(ctx context.Context, event model.IndexUpdatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)

	slog.InfoContext(ctx, "mock index updated event published",
		"action", event.Action,
		"received", event.Received,
		"attendees", event.Attendees,
	)
	return nil
}

// SetError makes subsequent publishes fail with err
func (m *MockEventPublisher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Events returns a copy of the recorded events
func (m *MockEventPublisher) Events() []model.IndexUpdatedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.IndexUpdatedEvent(nil), m.events...)
}
