package recurrence

import (
	"errors"
	"testing"
	"time"
)

func mustKST(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02T15:04:05", value, kst)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestExpandDaily(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	rule := Rule{
		ID:        "rule-1",
		GroupID:   "group-1",
		Frequency: FrequencyDaily,
		StartTime: mustKST(t, "2026-03-01T19:00:00"),
		Anchor:    mustKST(t, "2026-03-01T19:00:00"),
	}

	got, err := engine.Expand(rule, mustKST(t, "2026-03-02T00:00:00"), mustKST(t, "2026-03-05T23:59:59"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []time.Time{
		mustKST(t, "2026-03-02T19:00:00"),
		mustKST(t, "2026-03-03T19:00:00"),
		mustKST(t, "2026-03-04T19:00:00"),
		mustKST(t, "2026-03-05T19:00:00"),
	}
	assertOccurrences(t, got, want)
}

func TestExpandWeekly(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)

	t.Run("monday wednesday after count four", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-2",
			GroupID:   "group-1",
			Frequency: FrequencyWeekly,
			Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
			StartTime: mustKST(t, "2026-03-02T19:00:00"),
			Anchor:    mustKST(t, "2026-03-02T19:00:00"),
			End:       EndCondition{Kind: EndAfterCount, Count: 4},
		}

		// 2026-03-02 is a Monday.
		got, err := engine.Expand(rule, mustKST(t, "2026-03-02T00:00:00"), mustKST(t, "2026-12-31T23:59:59"), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []time.Time{
			mustKST(t, "2026-03-02T19:00:00"),
			mustKST(t, "2026-03-04T19:00:00"),
			mustKST(t, "2026-03-09T19:00:00"),
			mustKST(t, "2026-03-11T19:00:00"),
		}
		assertOccurrences(t, got, want)
	})

	t.Run("count independent of window size", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-3",
			GroupID:   "group-1",
			Frequency: FrequencyWeekly,
			Weekdays:  []time.Weekday{time.Friday},
			StartTime: mustKST(t, "2026-03-06T20:00:00"),
			Anchor:    mustKST(t, "2026-03-06T20:00:00"),
			End:       EndCondition{Kind: EndAfterCount, Count: 3},
		}

		narrow, err := engine.Expand(rule, mustKST(t, "2026-03-01T00:00:00"), mustKST(t, "2026-04-30T23:59:59"), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wide, err := engine.Expand(rule, mustKST(t, "2026-03-01T00:00:00"), mustKST(t, "2027-04-30T23:59:59"), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(narrow) != 3 || len(wide) != 3 {
			t.Fatalf("expected 3 occurrences in both windows, got %d and %d", len(narrow), len(wide))
		}
		assertOccurrences(t, wide, narrow)
	})

	t.Run("empty weekday set is rejected", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-4",
			GroupID:   "group-1",
			Frequency: FrequencyWeekly,
			StartTime: mustKST(t, "2026-03-02T19:00:00"),
		}

		if _, err := engine.Expand(rule, mustKST(t, "2026-03-02T00:00:00"), mustKST(t, "2026-03-31T23:59:59"), 0); !errors.Is(err, ErrEmptyWeekdays) {
			t.Fatalf("expected ErrEmptyWeekdays, got %v", err)
		}
	})
}

func TestExpandMonthly(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)

	t.Run("anchor day each month", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-5",
			GroupID:   "group-1",
			Frequency: FrequencyMonthly,
			StartTime: mustKST(t, "2026-03-15T18:30:00"),
			Anchor:    mustKST(t, "2026-03-15T18:30:00"),
		}

		got, err := engine.Expand(rule, mustKST(t, "2026-03-01T00:00:00"), mustKST(t, "2026-06-30T23:59:59"), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []time.Time{
			mustKST(t, "2026-03-15T18:30:00"),
			mustKST(t, "2026-04-15T18:30:00"),
			mustKST(t, "2026-05-15T18:30:00"),
			mustKST(t, "2026-06-15T18:30:00"),
		}
		assertOccurrences(t, got, want)
	})

	t.Run("months without the anchor day are skipped", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-6",
			GroupID:   "group-1",
			Frequency: FrequencyMonthly,
			StartTime: mustKST(t, "2026-01-31T19:00:00"),
			Anchor:    mustKST(t, "2026-01-31T19:00:00"),
		}

		got, err := engine.Expand(rule, mustKST(t, "2026-01-01T00:00:00"), mustKST(t, "2026-05-31T23:59:59"), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// February and April lack a 31st.
		want := []time.Time{
			mustKST(t, "2026-01-31T19:00:00"),
			mustKST(t, "2026-03-31T19:00:00"),
			mustKST(t, "2026-05-31T19:00:00"),
		}
		assertOccurrences(t, got, want)
	})
}

func TestExpandTermination(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)

	t.Run("until date stops the sequence", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-7",
			GroupID:   "group-1",
			Frequency: FrequencyDaily,
			StartTime: mustKST(t, "2026-03-01T10:00:00"),
			End:       EndCondition{Kind: EndOnDate, Date: mustKST(t, "2026-03-03T10:00:00")},
		}

		got, err := engine.Expand(rule, mustKST(t, "2026-03-01T00:00:00"), mustKST(t, "2026-03-31T23:59:59"), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []time.Time{
			mustKST(t, "2026-03-01T10:00:00"),
			mustKST(t, "2026-03-02T10:00:00"),
			mustKST(t, "2026-03-03T10:00:00"),
		}
		assertOccurrences(t, got, want)
	})

	t.Run("maxCount caps the sequence", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-8",
			GroupID:   "group-1",
			Frequency: FrequencyDaily,
			StartTime: mustKST(t, "2026-03-01T10:00:00"),
		}

		got, err := engine.Expand(rule, mustKST(t, "2026-03-01T00:00:00"), mustKST(t, "2026-03-31T23:59:59"), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 occurrences, got %d", len(got))
		}
	})

	t.Run("inverted window yields empty result", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-9",
			GroupID:   "group-1",
			Frequency: FrequencyDaily,
			StartTime: mustKST(t, "2026-03-01T10:00:00"),
		}

		got, err := engine.Expand(rule, mustKST(t, "2026-03-10T00:00:00"), mustKST(t, "2026-03-01T00:00:00"), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty result, got %d occurrences", len(got))
		}
	})

	t.Run("unbounded window without a count is rejected", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-10",
			GroupID:   "group-1",
			Frequency: FrequencyDaily,
			StartTime: mustKST(t, "2026-03-01T10:00:00"),
		}

		if _, err := engine.Expand(rule, mustKST(t, "2026-03-01T00:00:00"), time.Time{}, 0); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})

	t.Run("invalid frequency is rejected", func(t *testing.T) {
		t.Parallel()

		rule := Rule{
			ID:        "rule-11",
			GroupID:   "group-1",
			Frequency: FrequencyUnspecified,
			StartTime: mustKST(t, "2026-03-01T10:00:00"),
		}

		if _, err := engine.Expand(rule, mustKST(t, "2026-03-01T00:00:00"), mustKST(t, "2026-03-31T23:59:59"), 0); !errors.Is(err, ErrInvalidFrequency) {
			t.Fatalf("expected ErrInvalidFrequency, got %v", err)
		}
	})
}

func TestExpandIsDeterministic(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	rule := Rule{
		ID:        "rule-12",
		GroupID:   "group-1",
		Frequency: FrequencyWeekly,
		Weekdays:  []time.Weekday{time.Tuesday, time.Saturday},
		StartTime: mustKST(t, "2026-03-03T19:30:00"),
	}
	windowStart := mustKST(t, "2026-03-01T00:00:00")
	windowEnd := mustKST(t, "2026-04-30T23:59:59")

	first, err := engine.Expand(rule, windowStart, windowEnd, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Expand(rule, windowStart, windowEnd, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOccurrences(t, second, first)

	for i := 1; i < len(first); i++ {
		if !first[i].After(first[i-1]) {
			t.Fatalf("occurrences not strictly increasing at index %d: %v then %v", i, first[i-1], first[i])
		}
	}
}

func TestRuleDuration(t *testing.T) {
	t.Parallel()

	if got := (Rule{DurationMinutes: 90}).Duration(); got != 90*time.Minute {
		t.Fatalf("expected 90m, got %v", got)
	}
	if got := (Rule{}).Duration(); got != 2*time.Hour {
		t.Fatalf("expected default 2h, got %v", got)
	}
}

func assertOccurrences(t *testing.T, got, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
