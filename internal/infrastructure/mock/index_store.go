// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"sync"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

// MemoryIndexStore keeps the snapshot in process memory. It backs INDEX_SOURCE=memory and tests.
type MemoryIndexStore struct {
	mu       sync.Mutex
	snapshot *model.IndexSnapshot
	saves    int

	loadErr  error
	saveErr  error
	clearErr error
}

var _ port.AttendeeIndexStore = (*MemoryIndexStore)(nil)

// NewMemoryIndexStore creates an empty in-memory store
func NewMemoryIndexStore() *MemoryIndexStore {
	return &MemoryIndexStore{}
}

// Load returns a copy of the last saved snapshot
func (m *MemoryIndexStore) Load(_ context.Context) (*model.IndexSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.snapshot.Clone(), nil
}

// Save stores a copy of snapshot
func (m *MemoryIndexStore) Save(_ context.Context, snapshot *model.IndexSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if snapshot == nil {
		return errors.NewValidation("snapshot cannot be nil")
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snapshot = snapshot.Clone()
	m.saves++
	return nil
}

// Clear drops the stored snapshot
func (m *MemoryIndexStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clearErr != nil {
		return m.clearErr
	}
	m.snapshot = nil
	return nil
}

// SetErrors configures the errors returned by Load, Save and Clear. Nil clears an error.
func (m *MemoryIndexStore) SetErrors(load, save, clear error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr, m.saveErr, m.clearErr = load, save, clear
}

// Saves returns how many snapshots were saved successfully
func (m *MemoryIndexStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Snapshot returns a copy of the stored snapshot, nil when nothing is stored
func (m *MemoryIndexStore) Snapshot() *model.IndexSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil
	}
	return m.snapshot.Clone()
}
