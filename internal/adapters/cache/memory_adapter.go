package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pricegauge/laborrates/internal/domain/providers"
)

// MemoryAdapter implements the CacheProvider interface with an in-process
// concurrent map. It backs the per-batch memoization cache: created at batch
// start, discarded at batch end, safe for idempotent writes from concurrent
// workers.
type MemoryAdapter struct {
	entries sync.Map
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryAdapter creates a new in-memory cache adapter
func NewMemoryAdapter() providers.CacheProvider {
	return &MemoryAdapter{}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := a.entries.Load(key)
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	entry := raw.(memoryEntry)
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		a.entries.Delete(key)
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return entry.value, nil
}

// Set stores a value in cache with expiration
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: value}
	if expirationSeconds > 0 {
		entry.expiresAt = time.Now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.entries.Store(key, entry)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.entries.Delete(key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	return err == nil, nil
}
