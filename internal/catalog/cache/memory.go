package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Md-Afzal3135/optihub.project/internal/domain"
)

// MemoryCache is the default cache when no Redis address is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[int64]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	product   domain.Product
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &MemoryCache{
		entries: make(map[int64]memoryEntry),
		ttl:     ttl,
	}
}

func (m *MemoryCache) Get(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.RLock()
	entry, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}
	product := entry.product
	return &product, nil
}

func (m *MemoryCache) Set(_ context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[product.ID] = memoryEntry{
		product:   *product,
		expiresAt: time.Now().Add(m.ttl),
	}
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}
