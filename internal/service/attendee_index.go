// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/utils"
)

// AttendeeIndex is the in-memory e-mail directory. Every mutation is persisted through the store
// before it becomes visible; a failed save leaves the previous state in place.
type AttendeeIndex struct {
	// writeMu serializes mutations, including their store calls
	writeMu sync.Mutex

	// mu guards entries and updatedAt and is never held across a store call
	mu        sync.RWMutex
	entries   map[string]model.Attendee
	updatedAt *time.Time

	// store is nil when persistence is disabled
	store port.AttendeeIndexStore
	now   func() time.Time
}

// NewAttendeeIndex creates an empty index. A nil store disables persistence.
func NewAttendeeIndex(store port.AttendeeIndexStore) *AttendeeIndex {
	return &AttendeeIndex{
		entries: make(map[string]model.Attendee),
		store:   store,
		now:     time.Now,
	}
}

// Load replaces the in-memory content with the stored snapshot
func (i *AttendeeIndex) Load(ctx context.Context) error {
	if i.store == nil {
		return nil
	}

	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	snapshot, err := i.store.Load(ctx)
	if err != nil {
		return err
	}

	entries := make(map[string]model.Attendee, len(snapshot.Entries))
	for _, attendee := range snapshot.Entries {
		key := model.NormalizeEmail(attendee.Email)
		if key == "" {
			continue
		}
		attendee.Email = key
		entries[key] = attendee
	}

	i.swap(entries, snapshot.UpdatedAt)

	slog.InfoContext(ctx, "attendee index loaded",
		"attendees", len(entries),
		"updated_at", utils.FormatWatermark(snapshot.UpdatedAt),
	)
	return nil
}

// Add upserts one attendee, advances the watermark and persists
func (i *AttendeeIndex) Add(ctx context.Context, attendee model.Attendee) error {
	_, err := i.AddBatch(ctx, []model.Attendee{attendee})
	return err
}

// AddBatch upserts attendees with a single watermark and a single save.
// It returns the number of distinct e-mails written. Lookups keep being served
// from the previous state until the save succeeds.
func (i *AttendeeIndex) AddBatch(ctx context.Context, attendees []model.Attendee) (int, error) {
	if len(attendees) == 0 {
		return 0, nil
	}

	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	// only writers replace entries, so reading it under writeMu is safe
	next := make(map[string]model.Attendee, len(i.entries)+len(attendees))
	for key, attendee := range i.entries {
		next[key] = attendee
	}

	touched := make(map[string]struct{}, len(attendees))
	for _, attendee := range attendees {
		key := model.NormalizeEmail(attendee.Email)
		if key == "" {
			slog.DebugContext(ctx, "skipping attendee without e-mail")
			continue
		}
		touched[key] = struct{}{}
		attendee.Email = key
		next[key] = attendee
	}

	if len(touched) == 0 {
		return 0, errors.NewValidation("no attendee with an e-mail in batch")
	}

	now := i.now().UTC()
	if err := i.persist(ctx, next, &now); err != nil {
		return 0, err
	}

	i.swap(next, &now)
	return len(touched), nil
}

// Search looks up a normalized e-mail. It never touches the network.
func (i *AttendeeIndex) Search(email string) (model.Attendee, bool) {
	key := model.NormalizeEmail(email)
	if key == "" {
		return model.Attendee{}, false
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	attendee, ok := i.entries[key]
	return attendee, ok
}

// Stats returns the index size and watermark
func (i *AttendeeIndex) Stats() model.IndexStats {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return model.IndexStats{
		Attendees: len(i.entries),
		UpdatedAt: copyTime(i.updatedAt),
	}
}

// UpdatedAt returns the watermark, nil before the first successful refresh
func (i *AttendeeIndex) UpdatedAt() *time.Time {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return copyTime(i.updatedAt)
}

// Clear drops every entry and the watermark, memory and store alike
func (i *AttendeeIndex) Clear(ctx context.Context) error {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	if i.store != nil {
		if err := i.store.Clear(ctx); err != nil {
			return err
		}
	}

	i.mu.RLock()
	cleared := len(i.entries)
	i.mu.RUnlock()

	i.swap(make(map[string]model.Attendee), nil)

	slog.InfoContext(ctx, "attendee index cleared", "attendees", cleared)
	return nil
}

func (i *AttendeeIndex) swap(entries map[string]model.Attendee, updatedAt *time.Time) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = entries
	i.updatedAt = updatedAt
}

func (i *AttendeeIndex) persist(ctx context.Context, entries map[string]model.Attendee, updatedAt *time.Time) error {
	if i.store == nil {
		return nil
	}

	snapshot := &model.IndexSnapshot{Entries: entries, UpdatedAt: updatedAt}
	if err := i.store.Save(ctx, snapshot.Clone()); err != nil {
		slog.ErrorContext(ctx, "failed to persist attendee index", "error", err)
		return err
	}
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
