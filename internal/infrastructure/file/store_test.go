// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/internal/domain/model"
	errs "github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "index.msgpack")
	store, err := NewStore(path)
	require.NoError(t, err)
	return store, path
}

func TestNewStore_EmptyPath(t *testing.T) {
	_, err := NewStore("")

	var validation errs.Validation
	assert.ErrorAs(t, err, &validation)
}

func TestStore_LoadMissingFile(t *testing.T) {
	store, _ := newTestStore(t)

	snapshot, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, snapshot.Entries)
	assert.Nil(t, snapshot.UpdatedAt)
}

func TestStore_SaveThenLoad(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()
	updatedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	changed := updatedAt.Add(-time.Hour)

	snapshot := model.NewIndexSnapshot()
	snapshot.Entries["a@x.io"] = model.Attendee{Email: "a@x.io", Status: "attending", Name: "Ada", ChangedAt: &changed}
	snapshot.Entries["b@x.io"] = model.Attendee{Email: "b@x.io", Status: "attending"}
	snapshot.UpdatedAt = &updatedAt

	require.NoError(t, store.Save(ctx, snapshot))
	assert.FileExists(t, path)

	reopened, err := NewStore(path)
	require.NoError(t, err)
	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)

	assert.Len(t, loaded.Entries, 2)
	assert.Equal(t, "Ada", loaded.Entries["a@x.io"].Name)
	require.NotNil(t, loaded.Entries["a@x.io"].ChangedAt)
	assert.True(t, changed.Equal(*loaded.Entries["a@x.io"].ChangedAt))
	require.NotNil(t, loaded.UpdatedAt)
	assert.True(t, updatedAt.Equal(*loaded.UpdatedAt))
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, model.NewIndexSnapshot()))
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestStore_SaveNil(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Save(context.Background(), nil)

	var validation errs.Validation
	assert.ErrorAs(t, err, &validation)
}

func TestStore_LoadCorruptFile(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("definitely not msgpack"), 0o600))

	_, err := store.Load(context.Background())

	var unexpected errs.Unexpected
	assert.ErrorAs(t, err, &unexpected)
}

func TestStore_LoadUnknownVersion(t *testing.T) {
	store, path := newTestStore(t)
	data, err := msgpack.Marshal(snapshotFile{Version: snapshotVersion + 1, Snapshot: model.NewIndexSnapshot()})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = store.Load(context.Background())

	var unexpected errs.Unexpected
	assert.ErrorAs(t, err, &unexpected)
}

func TestStore_Clear(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()
	snapshot := model.NewIndexSnapshot()
	snapshot.Entries["a@x.io"] = model.Attendee{Email: "a@x.io", Status: "attending"}

	require.NoError(t, store.Save(ctx, snapshot))
	require.NoError(t, store.Clear(ctx))
	assert.NoFileExists(t, path)

	// clearing twice is not an error
	require.NoError(t, store.Clear(ctx))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Entries)
}
