package session

import (
	"sync"
	"time"
)

type entry struct {
	val []byte
	exp time.Time
}

// MemoryStorage is an in-process Storage for the sqlite engine and tests.
// Sessions are lost on restart.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]entry), now: time.Now}
}

// Get returns the value of key, nil if it is missing or expired.
func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok || (!e.exp.IsZero() && !m.now().Before(e.exp)) {
		return nil, nil
	}

	return e.val, nil
}

// Set stores val under key. A zero exp never expires.
func (m *MemoryStorage) Set(key string, val []byte, exp time.Duration) error {
	e := entry{val: append([]byte(nil), val...)}
	if exp > 0 {
		e.exp = m.now().Add(exp)
	}

	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()

	return nil
}

// Delete removes key.
func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}
