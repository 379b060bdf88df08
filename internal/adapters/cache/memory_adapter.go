package cache

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/portoseguro/backend/internal/domain/providers"
)

// DefaultMemoryEntries bounds the in-process cache.
const DefaultMemoryEntries = 1024

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryAdapter is an in-process CacheProvider used when Redis is not
// configured (CLI runs, single-node deployments, tests).
type MemoryAdapter struct {
	mu    sync.Mutex
	items *lru.Cache[string, memoryEntry]
	now   func() time.Time
}

// NewMemoryAdapter creates an LRU cache holding at most size entries.
func NewMemoryAdapter(size int) *MemoryAdapter {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	items, err := lru.New[string, memoryEntry](size)
	if err != nil {
		panic(fmt.Sprintf("memory cache: %v", err))
	}
	return &MemoryAdapter{items: items, now: time.Now}
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.items.Get(key)
	if !ok || a.expired(entry) {
		if ok {
			a.items.Remove(key)
		}
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	return entry.data, nil
}

// Set stores a value; expirationSeconds <= 0 never expires.
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry := memoryEntry{data: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.items.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items.Remove(key)
	return nil
}

// Exists checks if a live key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.items.Peek(key)
	return ok && !a.expired(entry), nil
}

// DeletePattern removes keys matching a glob pattern (path.Match syntax,
// which agrees with Redis for '*', '?' and character classes).
func (a *MemoryAdapter) DeletePattern(ctx context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, key := range a.items.Keys() {
		if ok, _ := path.Match(pattern, key); ok {
			a.items.Remove(key)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (a *MemoryAdapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.items.Len()
}

func (a *MemoryAdapter) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !a.now().Before(e.expiresAt)
}
