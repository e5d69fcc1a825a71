// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/utils"
)

// indexMeta is stored under the meta key next to the attendee entries
type indexMeta struct {
	UpdatedAt string `json:"updated_at"`
}

// storage keeps the attendee index in a JetStream key-value bucket, one key per attendee.
// Save only writes entries whose encoding changed since the last Load or Save.
type storage struct {
	kv    jetstream.KeyValue
	retry utils.RetryConfig

	mu     sync.Mutex
	stored map[string][]byte
}

func newStorage(kv jetstream.KeyValue) *storage {
	return &storage{
		kv:     kv,
		retry:  utils.NewRetryConfig(3, 100*time.Millisecond, time.Second),
		stored: make(map[string][]byte),
	}
}

// Load reads every attendee entry and the watermark from the bucket
func (s *storage) Load(ctx context.Context) (*model.IndexSnapshot, error) {
	slog.DebugContext(ctx, "nats storage: loading attendee index")

	keys, err := s.keys(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list attendee index keys", "error", err)
		return nil, errs.NewServiceUnavailable("failed to list attendee index keys", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := model.NewIndexSnapshot()
	stored := make(map[string][]byte, len(keys))

	for _, key := range keys {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			slog.ErrorContext(ctx, "failed to get attendee index entry", "error", err, "key", key)
			return nil, errs.NewServiceUnavailable("failed to get attendee index entry", err)
		}

		if key == constants.KVKeyIndexMeta {
			var meta indexMeta
			if err := json.Unmarshal(entry.Value(), &meta); err != nil {
				return nil, errs.NewUnexpected("failed to decode attendee index metadata", err)
			}
			updatedAt, err := utils.ParseWatermark(meta.UpdatedAt)
			if err != nil {
				return nil, errs.NewUnexpected("failed to decode attendee index watermark", err)
			}
			snapshot.UpdatedAt = updatedAt
			continue
		}

		var attendee model.Attendee
		if err := json.Unmarshal(entry.Value(), &attendee); err != nil {
			slog.WarnContext(ctx, "skipping undecodable attendee index entry", "key", key, "error", err)
			continue
		}
		snapshot.Entries[model.NormalizeEmail(attendee.Email)] = attendee
		stored[key] = entry.Value()
	}

	s.stored = stored

	slog.DebugContext(ctx, "nats storage: attendee index loaded",
		"attendees", len(snapshot.Entries),
		"updated_at", utils.FormatWatermark(snapshot.UpdatedAt),
	)

	return snapshot, nil
}

// Save writes changed entries, deletes removed ones and then advances the watermark.
func (s *storage) Save(ctx context.Context, snapshot *model.IndexSnapshot) error {
	if snapshot == nil {
		return errs.NewValidation("snapshot cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string][]byte, len(snapshot.Entries))
	for _, attendee := range snapshot.Entries {
		data, err := json.Marshal(attendee)
		if err != nil {
			return errs.NewUnexpected("failed to encode attendee", err)
		}
		wanted[fmt.Sprintf(constants.KVKeyAttendeePattern, attendee.BuildIndexKey())] = data
	}

	written, deleted := 0, 0
	for key, data := range wanted {
		if bytes.Equal(s.stored[key], data) {
			continue
		}
		if err := s.put(ctx, key, data); err != nil {
			return err
		}
		s.stored[key] = data
		written++
	}

	for key := range s.stored {
		if _, keep := wanted[key]; keep {
			continue
		}
		if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			slog.ErrorContext(ctx, "failed to delete attendee index entry", "error", err, "key", key)
			return errs.NewServiceUnavailable("failed to delete attendee index entry", err)
		}
		delete(s.stored, key)
		deleted++
	}

	meta := indexMeta{UpdatedAt: utils.FormatWatermark(snapshot.UpdatedAt)}
	data, err := json.Marshal(meta)
	if err != nil {
		return errs.NewUnexpected("failed to encode attendee index metadata", err)
	}
	if err := s.put(ctx, constants.KVKeyIndexMeta, data); err != nil {
		return err
	}

	slog.DebugContext(ctx, "nats storage: attendee index saved",
		"attendees", len(wanted),
		"written", written,
		"deleted", deleted,
	)
	return nil
}

// Clear purges every key of the bucket
func (s *storage) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil {
		return errs.NewServiceUnavailable("failed to list attendee index keys", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		if err := s.kv.Purge(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			slog.ErrorContext(ctx, "failed to purge attendee index entry", "error", err, "key", key)
			return errs.NewServiceUnavailable("failed to purge attendee index entry", err)
		}
	}
	s.stored = make(map[string][]byte)

	slog.InfoContext(ctx, "nats storage: attendee index cleared", "keys", len(keys))
	return nil
}

func (s *storage) put(ctx context.Context, key string, data []byte) error {
	err := utils.RetryWithExponentialBackoff(ctx, s.retry, func() error {
		_, err := s.kv.Put(ctx, key, data)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to put attendee index entry", "error", err, "key", key)
		return errs.NewServiceUnavailable("failed to put attendee index entry", err)
	}
	return nil
}

// keys lists attendee and meta keys of the bucket
func (s *storage) keys(ctx context.Context) ([]string, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, err
	}
	defer func() {
		_ = lister.Stop()
	}()

	var keys []string
	for key := range lister.Keys() {
		if strings.HasPrefix(key, constants.KVKeyAttendeePrefix) || key == constants.KVKeyIndexMeta {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// NewAttendeeIndexStore creates a KV-backed index store using the attendee index bucket
func NewAttendeeIndexStore(client *NATSClient) (port.AttendeeIndexStore, error) {
	kv, exists := client.bucket(constants.KVBucketNameAttendeeIndex)
	if !exists || kv == nil {
		return nil, errs.NewServiceUnavailable("KV bucket not available: " + constants.KVBucketNameAttendeeIndex)
	}
	return newStorage(kv), nil
}
