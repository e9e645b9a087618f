package scheduler

import (
	"testing"
	"time"
)

var kst = time.FixedZone("KST", 9*60*60)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02T15:04:05", value, kst)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func ptr(v time.Time) *time.Time { return &v }

func TestFindConflicts(t *testing.T) {
	t.Parallel()

	t.Run("overlapping schedules conflict", func(t *testing.T) {
		t.Parallel()

		existing := []Schedule{{
			ID:      "sched-1",
			GroupID: "group-1",
			Title:   "정기 연습",
			Start:   at(t, "2026-03-02T19:00:00"),
			End:     ptr(at(t, "2026-03-02T21:00:00")),
		}}
		candidate := Candidate{
			Start: at(t, "2026-03-02T20:00:00"),
			End:   ptr(at(t, "2026-03-02T22:00:00")),
		}

		conflicts := FindConflicts(existing, candidate, "")
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(conflicts))
		}
		if conflicts[0].WithScheduleID != "sched-1" {
			t.Fatalf("expected conflict with sched-1, got %s", conflicts[0].WithScheduleID)
		}
	})

	t.Run("touching endpoints do not conflict", func(t *testing.T) {
		t.Parallel()

		existing := []Schedule{{
			ID:    "sched-1",
			Start: at(t, "2026-03-02T16:00:00"),
			End:   ptr(at(t, "2026-03-02T18:00:00")),
		}}
		candidate := Candidate{
			Start: at(t, "2026-03-02T18:00:00"),
			End:   ptr(at(t, "2026-03-02T20:00:00")),
		}

		if conflicts := FindConflicts(existing, candidate, ""); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %d", len(conflicts))
		}
	})

	t.Run("missing end defaults to two hours", func(t *testing.T) {
		t.Parallel()

		existing := []Schedule{{
			ID:    "sched-1",
			Start: at(t, "2026-03-02T19:00:00"),
		}}
		candidate := Candidate{Start: at(t, "2026-03-02T20:30:00")}

		conflicts := FindConflicts(existing, candidate, "")
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(conflicts))
		}
		if want := at(t, "2026-03-02T21:00:00"); !conflicts[0].End.Equal(want) {
			t.Fatalf("expected effective end %v, got %v", want, conflicts[0].End)
		}
	})

	t.Run("exclude id skips the schedule being edited", func(t *testing.T) {
		t.Parallel()

		existing := []Schedule{
			{ID: "sched-1", Start: at(t, "2026-03-02T19:00:00"), End: ptr(at(t, "2026-03-02T21:00:00"))},
			{ID: "sched-2", Start: at(t, "2026-03-02T19:30:00"), End: ptr(at(t, "2026-03-02T20:30:00"))},
		}
		candidate := Candidate{
			Start: at(t, "2026-03-02T19:00:00"),
			End:   ptr(at(t, "2026-03-02T21:00:00")),
		}

		conflicts := FindConflicts(existing, candidate, "sched-1")
		if len(conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(conflicts))
		}
		if conflicts[0].WithScheduleID != "sched-2" {
			t.Fatalf("expected conflict with sched-2, got %s", conflicts[0].WithScheduleID)
		}
	})

	t.Run("containment conflicts in both directions", func(t *testing.T) {
		t.Parallel()

		outer := Schedule{ID: "outer", Start: at(t, "2026-03-02T18:00:00"), End: ptr(at(t, "2026-03-02T22:00:00"))}
		inner := Candidate{Start: at(t, "2026-03-02T19:00:00"), End: ptr(at(t, "2026-03-02T20:00:00"))}

		if got := FindConflicts([]Schedule{outer}, inner, ""); len(got) != 1 {
			t.Fatalf("expected inner candidate to conflict with outer, got %d", len(got))
		}

		innerStored := Schedule{ID: "inner", Start: at(t, "2026-03-02T19:00:00"), End: ptr(at(t, "2026-03-02T20:00:00"))}
		outerCandidate := Candidate{Start: at(t, "2026-03-02T18:00:00"), End: ptr(at(t, "2026-03-02T22:00:00"))}

		if got := FindConflicts([]Schedule{innerStored}, outerCandidate, ""); len(got) != 1 {
			t.Fatalf("expected outer candidate to conflict with inner, got %d", len(got))
		}
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		t.Parallel()

		candidate := Candidate{Start: at(t, "2026-03-02T19:00:00")}
		conflicts := FindConflicts(nil, candidate, "")
		if conflicts == nil || len(conflicts) != 0 {
			t.Fatalf("expected empty non-nil slice, got %v", conflicts)
		}
	})
}
