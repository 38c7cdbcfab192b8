package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryCache is a map-backed Backend with per-entry expiry and a size cap.
type MemoryCache struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	maxSize  int
	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(maxSize int, cleanupInterval time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	mc := &MemoryCache{
		entries: make(map[string]memoryEntry),
		maxSize: maxSize,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	if cleanupInterval > 0 {
		go mc.cleanupLoop(cleanupInterval)
	}
	return mc
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || m.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	m.evictLocked()
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) GetMultiple(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, key := range keys {
		if entry, ok := m.entries[key]; ok && !now.After(entry.expiresAt) {
			result[key] = entry.value
		}
	}
	return result, nil
}

func (m *MemoryCache) SetMultiple(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt := m.now().Add(ttl)
	for key, value := range items {
		m.entries[key] = memoryEntry{value: value, expiresAt: expiresAt}
	}
	m.evictLocked()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryCache) Close() error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	return nil
}

func (m *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.removeExpiredLocked()
			m.mu.Unlock()
		}
	}
}

func (m *MemoryCache) removeExpiredLocked() {
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictLocked drops expired entries, then the soonest-expiring ones, until
// the cache fits maxSize.
func (m *MemoryCache) evictLocked() {
	if len(m.entries) <= m.maxSize {
		return
	}
	m.removeExpiredLocked()
	if len(m.entries) <= m.maxSize {
		return
	}

	type keyExpiry struct {
		key       string
		expiresAt time.Time
	}
	all := make([]keyExpiry, 0, len(m.entries))
	for k, e := range m.entries {
		all = append(all, keyExpiry{k, e.expiresAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].expiresAt.Before(all[j].expiresAt) })
	for _, ke := range all[:len(all)-m.maxSize] {
		delete(m.entries, ke.key)
	}
}
