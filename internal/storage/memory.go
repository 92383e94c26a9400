package storage

import "sync"

// MemoryStore keeps slots in memory. Used in tests and when no state
// directory is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

var _ SlotStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (s *MemoryStore) Get(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.slots[name]
	if !ok {
		return nil, ErrSlotNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *MemoryStore) Set(name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.slots[name] = stored
	return nil
}

func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, name)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
