package credstore

import "sync"

// MemoryStore keeps credentials in process memory only.
//
// Used by tests and by --ephemeral runs where nothing should touch disk.
type MemoryStore struct {
	values sync.Map
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(key string) (string, bool) {
	v, ok := m.values.Load(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) {
	m.values.Store(key, value)
}

// Remove deletes key.
func (m *MemoryStore) Remove(key string) {
	m.values.Delete(key)
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	count := 0
	m.values.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
