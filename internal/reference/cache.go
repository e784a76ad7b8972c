package reference

import (
	"context"
	"sync"
)

// TableSource produces a reference table. *Fetcher is the production
// implementation; tests substitute fakes.
type TableSource interface {
	Fetch(ctx context.Context) (*Table, error)
}

// Cache memoizes one table fetch. Each processing session owns its own
// Cache, so a fresh upload always re-reads the sheet while repeated
// operations inside a session (analyze, export, report) reuse the first
// fetch. The mutex is held across the fetch: concurrent first reads from
// HTTP handlers collapse into a single upstream call.
type Cache struct {
	source TableSource

	mu    sync.Mutex
	table *Table
}

// NewCache wraps a table source with fetch-once behavior.
func NewCache(source TableSource) *Cache {
	return &Cache{source: source}
}

// Get returns the cached table, fetching it on first use. Failed fetches
// are not cached; the next Get retries.
func (c *Cache) Get(ctx context.Context) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table != nil {
		return c.table, nil
	}
	table, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.table = table
	return table, nil
}

// Invalidate drops the cached table so the next Get refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.table = nil
	c.mu.Unlock()
}
