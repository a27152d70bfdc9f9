package cache

import "sync"

// MemStore keeps entries in memory. It exists so tests can substitute the
// filesystem store.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]byte)}
}

func (s *MemStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, true, nil
}

func (s *MemStore) Put(key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]byte, len(blob))
	copy(next, blob)
	s.entries[key] = next
	return nil
}

// Len reports the number of stored entries.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
