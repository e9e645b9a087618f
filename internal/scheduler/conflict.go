// Package scheduler detects time conflicts between schedules.
package scheduler

import "time"

// DefaultEventDuration is the effective length of a schedule without an
// explicit end.
const DefaultEventDuration = 2 * time.Hour

// Schedule is the slice of a stored schedule the detector needs.
type Schedule struct {
	ID      string
	GroupID string
	Title   string
	Start   time.Time
	End     *time.Time
}

// Candidate is a schedule being created or edited.
type Candidate struct {
	Start time.Time
	End   *time.Time
}

// Conflict reports an overlap with an existing schedule.
type Conflict struct {
	WithScheduleID string
	Title          string
	Start          time.Time
	End            time.Time
}

// FindConflicts returns the subset of existing schedules whose interval
// overlaps the candidate's. Intervals are half-open, so schedules that
// merely touch at an endpoint do not conflict. A schedule without an end
// runs for DefaultEventDuration. excludeID removes the schedule being
// edited from consideration; pass "" when creating. The function is total:
// it never errors and an empty input produces an empty result.
func FindConflicts(existing []Schedule, candidate Candidate, excludeID string) []Conflict {
	candidateEnd := effectiveEnd(candidate.Start, candidate.End)

	conflicts := make([]Conflict, 0)
	for _, schedule := range existing {
		if excludeID != "" && schedule.ID == excludeID {
			continue
		}

		end := effectiveEnd(schedule.Start, schedule.End)
		if candidate.Start.Before(end) && candidateEnd.After(schedule.Start) {
			conflicts = append(conflicts, Conflict{
				WithScheduleID: schedule.ID,
				Title:          schedule.Title,
				Start:          schedule.Start,
				End:            end,
			})
		}
	}

	return conflicts
}

func effectiveEnd(start time.Time, end *time.Time) time.Time {
	if end != nil {
		return *end
	}
	return start.Add(DefaultEventDuration)
}
