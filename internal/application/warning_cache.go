package application

import (
	"fmt"
	"sync"
	"time"
)

const (
	defaultWarningCacheTTL     = 30 * time.Second
	defaultWarningCacheEntries = 256
)

type warningCacheEntry struct {
	warnings  []ConflictWarning
	expiresAt time.Time
}

// warningCache memoizes conflict warnings for schedule listings. Entries
// expire after a short TTL and the whole cache is invalidated whenever a
// schedule mutates, so stale overlaps are never served.
type warningCache struct {
	mu         sync.Mutex
	entries    map[string]warningCacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func newWarningCache(ttl time.Duration, maxEntries int, now func() time.Time) *warningCache {
	if ttl <= 0 {
		ttl = defaultWarningCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultWarningCacheEntries
	}
	if now == nil {
		now = time.Now
	}
	return &warningCache{
		entries:    make(map[string]warningCacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
	}
}

func (c *warningCache) Get(key string) ([]ConflictWarning, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.After(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return cloneWarnings(entry.warnings), true
}

func (c *warningCache) Store(key string, warnings []ConflictWarning) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}

	c.entries[key] = warningCacheEntry{
		warnings:  cloneWarnings(warnings),
		expiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate drops every cached entry. Called after any schedule mutation.
func (c *warningCache) Invalidate() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]warningCacheEntry)
}

func (c *warningCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, key)
		}
	}
}

func (c *warningCache) evictOneLocked() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, entry := range c.entries {
		if !found || entry.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = entry.expiresAt
			found = true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

func cloneWarnings(warnings []ConflictWarning) []ConflictWarning {
	if warnings == nil {
		return nil
	}
	out := make([]ConflictWarning, len(warnings))
	copy(out, warnings)
	return out
}

func buildWarningCacheKey(filter ScheduleRepositoryFilter) string {
	projectID := ""
	if filter.ProjectID != nil {
		projectID = *filter.ProjectID
	}
	startsAfter := ""
	if filter.StartsAfter != nil {
		startsAfter = filter.StartsAfter.UTC().Format(time.RFC3339Nano)
	}
	endsBefore := ""
	if filter.EndsBefore != nil {
		endsBefore = filter.EndsBefore.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s|%s|%s|%s", filter.GroupID, projectID, startsAfter, endsBefore)
}
