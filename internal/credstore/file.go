package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/docreview/internal/log"
)

// FileStore persists credentials as a JSON object in a single file with
// owner-only permissions. Writes replace the file atomically.
type FileStore struct {
	path   string
	logger *log.Logger

	mu sync.Mutex
}

// NewFileStore creates a store backed by path. The file and its parent
// directory are created lazily on the first write.
func NewFileStore(path string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &FileStore{
		path:   path,
		logger: logger.With("store", "file", "path", path),
	}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value stored under key.
func (f *FileStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.load()
	v, ok := values[key]
	return v, ok
}

// Set stores value under key.
func (f *FileStore) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.load()
	values[key] = value
	f.save(values)
}

// Remove deletes key. The file is deleted once it holds no keys.
func (f *FileStore) Remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.load()
	if _, ok := values[key]; !ok {
		return
	}
	delete(values, key)

	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			f.logger.Warn("failed to remove credential file", "error", err)
		}
		return
	}
	f.save(values)
}

func (f *FileStore) load() map[string]string {
	values := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("failed to read credential file", "error", err)
		}
		return values
	}

	if err := json.Unmarshal(data, &values); err != nil {
		f.logger.Warn("credential file is corrupt, ignoring it", "error", err)
		return make(map[string]string)
	}
	return values
}

func (f *FileStore) save(values map[string]string) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		f.logger.Warn("failed to create credential directory", "error", err)
		return
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		f.logger.Warn("failed to encode credentials", "error", err)
		return
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".credentials-*")
	if err != nil {
		f.logger.Warn("failed to create temp credential file", "error", err)
		return
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		f.logger.Warn("failed to write credentials", "error", err)
		return
	}
	if err := tmp.Chmod(0o600); err != nil {
		f.logger.Debug("chmod on temp credential file failed", "error", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		f.logger.Warn("failed to close temp credential file", "error", err)
		return
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		f.logger.Warn("failed to replace credential file", "error", err)
	}
}
