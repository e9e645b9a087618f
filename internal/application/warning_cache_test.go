package application

import (
	"testing"
	"time"
)

func TestWarningCache(t *testing.T) {
	t.Parallel()

	key := buildWarningCacheKey(ScheduleRepositoryFilter{GroupID: "team-1"})
	warnings := []ConflictWarning{{ScheduleID: "s-1", Title: "정기 연습"}}

	t.Run("serves stored entries until the TTL passes", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		cache := newWarningCache(time.Minute, 10, func() time.Time { return now })

		cache.Store(key, warnings)
		got, ok := cache.Get(key)
		if !ok || len(got) != 1 || got[0].ScheduleID != "s-1" {
			t.Fatalf("expected cached warnings, got %#v ok=%v", got, ok)
		}

		now = now.Add(2 * time.Minute)
		if _, ok := cache.Get(key); ok {
			t.Fatal("expected entry to expire")
		}
	})

	t.Run("invalidate drops everything", func(t *testing.T) {
		t.Parallel()

		cache := newWarningCache(time.Minute, 10, nil)
		cache.Store(key, warnings)
		cache.Invalidate()
		if _, ok := cache.Get(key); ok {
			t.Fatal("expected cache to be empty after invalidation")
		}
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		t.Parallel()

		cache := newWarningCache(time.Minute, 10, nil)
		cache.Store(key, warnings)
		got, _ := cache.Get(key)
		got[0].ScheduleID = "mutated"

		again, _ := cache.Get(key)
		if again[0].ScheduleID != "s-1" {
			t.Fatal("expected cache entry to be isolated from callers")
		}
	})

	t.Run("evicts the oldest entry at capacity", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		cache := newWarningCache(time.Minute, 2, func() time.Time { return now })

		cache.Store("first", warnings)
		now = now.Add(time.Second)
		cache.Store("second", warnings)
		now = now.Add(time.Second)
		cache.Store("third", warnings)

		if _, ok := cache.Get("first"); ok {
			t.Fatal("expected the oldest entry to be evicted")
		}
		if _, ok := cache.Get("third"); !ok {
			t.Fatal("expected the newest entry to survive")
		}
	})
}

func TestBuildWarningCacheKey(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	projectID := "showcase-1"

	a := buildWarningCacheKey(ScheduleRepositoryFilter{GroupID: "team-1", ProjectID: &projectID, StartsAfter: &start})
	b := buildWarningCacheKey(ScheduleRepositoryFilter{GroupID: "team-1"})
	if a == b {
		t.Fatal("expected distinct keys for distinct filters")
	}

	c := buildWarningCacheKey(ScheduleRepositoryFilter{GroupID: "team-1", ProjectID: &projectID, StartsAfter: &start})
	if a != c {
		t.Fatal("expected identical keys for identical filters")
	}
}
