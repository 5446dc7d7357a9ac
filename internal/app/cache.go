package app

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
)

// MemoryTaskCache is an in-process TaskCache. A zero ttl keeps entries until
// they are evicted.
type MemoryTaskCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[int64]memoryEntry
}

type memoryEntry struct {
	tasks    []domain.Task
	storedAt time.Time
}

// NewMemoryTaskCache constructs an empty in-process cache.
func NewMemoryTaskCache(ttl time.Duration, clock Clock) *MemoryTaskCache {
	if clock == nil {
		clock = time.Now
	}
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryTaskCache{
		ttl:     ttl,
		clock:   clock,
		entries: map[int64]memoryEntry{},
	}
}

// GetTasks returns the cached list for projectID.
func (c *MemoryTaskCache) GetTasks(_ context.Context, projectID int64) ([]domain.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[projectID]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.clock().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, projectID)
		return nil, false
	}
	return slices.Clone(entry.tasks), true
}

// SetTasks replaces the cached list for projectID.
func (c *MemoryTaskCache) SetTasks(_ context.Context, projectID int64, tasks []domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[projectID] = memoryEntry{tasks: slices.Clone(tasks), storedAt: c.clock()}
}

// Evict drops the cached list for projectID.
func (c *MemoryTaskCache) Evict(_ context.Context, projectID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, projectID)
}
