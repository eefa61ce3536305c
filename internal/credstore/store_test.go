package credstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/docreview/internal/log"
)

// exerciseStore runs the common contract against any backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()

	_, ok := store.Get(KeyToken)
	assert.False(t, ok, "fresh store should be empty")

	store.Set(KeyToken, "tok-1")
	v, ok := store.Get(KeyToken)
	require.True(t, ok)
	assert.Equal(t, "tok-1", v)

	store.Set(KeyToken, "tok-2")
	v, _ = store.Get(KeyToken)
	assert.Equal(t, "tok-2", v)

	store.Set(KeyProfile, `{"id":"u-1"}`)
	store.Remove(KeyToken)
	_, ok = store.Get(KeyToken)
	assert.False(t, ok)

	v, ok = store.Get(KeyProfile)
	require.True(t, ok)
	assert.Equal(t, `{"id":"u-1"}`, v)

	// Removing twice is a no-op.
	store.Remove(KeyProfile)
	store.Remove(KeyProfile)
	_, ok = store.Get(KeyProfile)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)
	assert.Equal(t, 0, store.Len())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	store := NewFileStore(path, log.Nop())
	exerciseStore(t, store)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file should be deleted once empty")
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	NewFileStore(path, log.Nop()).Set(KeyToken, "persisted")

	v, ok := NewFileStore(path, log.Nop()).Get(KeyToken)
	require.True(t, ok)
	assert.Equal(t, "persisted", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_CorruptFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileStore(path, log.Nop())
	_, ok := store.Get(KeyToken)
	assert.False(t, ok)

	store.Set(KeyToken, "fresh")
	v, ok := store.Get(KeyToken)
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestFileStore_UnwritableLocationIsNoop(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	// Parent "directory" is a regular file, so every write fails.
	store := NewFileStore(filepath.Join(blocker, "credentials.json"), log.Nop())
	assert.NotPanics(t, func() { store.Set(KeyToken, "x") })

	_, ok := store.Get(KeyToken)
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
		check   func(t *testing.T, s Store)
	}{
		{
			name: "default is file",
			opts: Options{Path: filepath.Join(t.TempDir(), "c.json")},
			check: func(t *testing.T, s Store) {
				_, ok := s.(*FileStore)
				assert.True(t, ok)
			},
		},
		{
			name: "memory",
			opts: Options{Backend: "memory"},
			check: func(t *testing.T, s Store) {
				_, ok := s.(*MemoryStore)
				assert.True(t, ok)
			},
		},
		{
			name: "redis",
			opts: Options{Backend: "redis", RedisAddr: "127.0.0.1:6379"},
			check: func(t *testing.T, s Store) {
				_, ok := s.(*RedisStore)
				assert.True(t, ok)
			},
		},
		{name: "file without path", opts: Options{Backend: "file"}, wantErr: true},
		{name: "redis without addr", opts: Options{Backend: "redis"}, wantErr: true},
		{name: "unknown", opts: Options{Backend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.opts, log.Nop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}
