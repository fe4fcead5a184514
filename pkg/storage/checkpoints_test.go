package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/absmach/fedround/pkg/fl"
	"github.com/absmach/fedround/pkg/storage"
	"github.com/absmach/fedround/pkg/storage/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCheckpointStore(t *testing.T) {
	testutil.CheckpointStoreSuite(t, storage.NewMemoryCheckpointStore())
}

func TestMemoryCheckpointStoreCopiesState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryCheckpointStore()

	cp := testutil.TestCheckpoint("session", 1)
	require.NoError(t, store.SaveModel(ctx, cp))
	cp.State.Parameters[0].Data[0] = 42

	got, err := store.LoadModel(ctx, "session", 1)
	require.NoError(t, err)
	assert.Equal(t, 0.1, got.State.Parameters[0].Data[0])

	got.State.Parameters[0].Data[0] = 7
	again, err := store.LoadModel(ctx, "session", 1)
	require.NoError(t, err)
	assert.Equal(t, 0.1, again.State.Parameters[0].Data[0])
}

func TestNewCheckpointStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cases := []struct {
		desc string
		cfg  storage.Config
		err  error
	}{
		{
			desc: "memory",
			cfg:  storage.Config{Type: "memory"},
		},
		{
			desc: "file",
			cfg:  storage.Config{Type: "file", FileDir: filepath.Join(dir, "files")},
		},
		{
			desc: "sqlite",
			cfg:  storage.Config{Type: "sqlite", SQLitePath: filepath.Join(dir, "fedround.db")},
		},
		{
			desc: "badger",
			cfg:  storage.Config{Type: "badger", BadgerPath: filepath.Join(dir, "badger")},
		},
		{
			desc: "unknown",
			cfg:  storage.Config{Type: "etcd"},
			err:  storage.ErrUnsupportedType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			store, err := storage.NewCheckpointStore(tc.cfg)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			defer store.Close()

			ctx := context.Background()
			require.NoError(t, store.SaveModel(ctx, testutil.TestCheckpoint("s1", 1)))
			versions, err := store.ListModels(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, []int{1}, versions)
			_, err = store.LoadModel(ctx, "s1", 2)
			assert.ErrorIs(t, err, fl.ErrCheckpointNotFound)
		})
	}
}
