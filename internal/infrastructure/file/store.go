// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package file persists the attendee index as a msgpack snapshot on local disk.
package file

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/port"
	errs "github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

// snapshotVersion is bumped when the on-disk layout changes
const snapshotVersion = 1

type snapshotFile struct {
	Version  int                  `msgpack:"version"`
	Snapshot *model.IndexSnapshot `msgpack:"snapshot"`
}

// Store keeps one snapshot file and a sibling lock file so several processes can share a path.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore creates a Store writing to path. The parent directory is created on first save.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errs.NewValidation("index path is required")
	}
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Load decodes the snapshot file. A missing file yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (*model.IndexSnapshot, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}
	if err := s.lock.RLock(); err != nil {
		return nil, errs.NewServiceUnavailable("failed to lock index file", err)
	}
	defer s.unlock(ctx)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.DebugContext(ctx, "index file not found, starting empty", "path", s.path)
			return model.NewIndexSnapshot(), nil
		}
		return nil, errs.NewServiceUnavailable("failed to read index file", err)
	}

	var file snapshotFile
	if err := msgpack.Unmarshal(data, &file); err != nil {
		return nil, errs.NewUnexpected("failed to decode index file", err)
	}
	if file.Version != snapshotVersion {
		return nil, errs.NewUnexpected("unsupported index file version")
	}

	snapshot := file.Snapshot
	if snapshot == nil {
		snapshot = model.NewIndexSnapshot()
	}
	if snapshot.Entries == nil {
		snapshot.Entries = make(map[string]model.Attendee)
	}

	slog.DebugContext(ctx, "index file loaded",
		"path", s.path,
		"attendees", len(snapshot.Entries),
	)
	return snapshot, nil
}

// Save writes the snapshot to a temporary file and renames it over the previous one.
func (s *Store) Save(ctx context.Context, snapshot *model.IndexSnapshot) error {
	if snapshot == nil {
		return errs.NewValidation("snapshot cannot be nil")
	}

	data, err := msgpack.Marshal(snapshotFile{Version: snapshotVersion, Snapshot: snapshot})
	if err != nil {
		return errs.NewUnexpected("failed to encode index file", err)
	}

	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return errs.NewServiceUnavailable("failed to lock index file", err)
	}
	defer s.unlock(ctx)

	if err := writeAtomic(s.path, data); err != nil {
		slog.ErrorContext(ctx, "failed to write index file", "path", s.path, "error", err)
		return errs.NewServiceUnavailable("failed to write index file", err)
	}

	slog.DebugContext(ctx, "index file saved",
		"path", s.path,
		"attendees", len(snapshot.Entries),
		"bytes", len(data),
	)
	return nil
}

// Clear removes the snapshot file
func (s *Store) Clear(ctx context.Context) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return errs.NewServiceUnavailable("failed to lock index file", err)
	}
	defer s.unlock(ctx)

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errs.NewServiceUnavailable("failed to remove index file", err)
	}

	slog.InfoContext(ctx, "index file cleared", "path", s.path)
	return nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errs.NewServiceUnavailable("failed to create index directory", err)
	}
	return nil
}

func (s *Store) unlock(ctx context.Context) {
	if err := s.lock.Unlock(); err != nil {
		slog.WarnContext(ctx, "failed to unlock index file", "path", s.path, "error", err)
	}
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

var _ port.AttendeeIndexStore = (*Store)(nil)
