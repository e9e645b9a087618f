package recurrence

import (
	"errors"
	"time"
)

var kst = time.FixedZone("KST", 9*60*60)

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily generates an occurrence every calendar day.
	FrequencyDaily
	// FrequencyWeekly generates occurrences on the selected weekdays.
	FrequencyWeekly
	// FrequencyMonthly generates occurrences on the anchor day of month.
	FrequencyMonthly
)

// EndKind identifies how a rule stops producing occurrences.
type EndKind int

const (
	// EndNever leaves termination to the expansion window.
	EndNever EndKind = iota
	// EndOnDate stops once an occurrence falls past a fixed instant.
	EndOnDate
	// EndAfterCount stops after a fixed number of emitted occurrences.
	EndAfterCount
)

// EndCondition bounds the sequence a rule generates. Date is only
// meaningful for EndOnDate and Count for EndAfterCount.
type EndCondition struct {
	Kind  EndKind
	Date  time.Time
	Count int
}

// Rule describes a recurrence configuration for a group or project.
type Rule struct {
	ID              string
	GroupID         string
	ProjectID       *string
	Frequency       Frequency
	Weekdays        []time.Weekday
	StartTime       time.Time // only the clock portion is used
	DurationMinutes int
	Title           string
	LocationName    string
	// Anchor fixes the day of month for monthly rules. Months that lack
	// the anchor day (e.g. the 31st in February) emit nothing.
	Anchor time.Time
	End    EndCondition
}

// Duration returns the occurrence length configured on the rule,
// defaulting to two hours when no positive duration is set.
func (r Rule) Duration() time.Duration {
	if r.DurationMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(r.DurationMinutes) * time.Minute
}

// Engine expands recurrence rules into occurrence start instants.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that performs calendar arithmetic in the
// provided location. If loc is nil, KST is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = kst
	}
	return &Engine{location: loc}
}

// ErrInvalidFrequency indicates the recurrence frequency is not supported.
var ErrInvalidFrequency = errors.New("recurrence: invalid frequency")

// ErrEmptyWeekdays indicates a weekly rule selected no weekdays.
var ErrEmptyWeekdays = errors.New("recurrence: weekly rule requires at least one weekday")

// ErrInvalidWindow indicates the expansion has no upper bound at all.
var ErrInvalidWindow = errors.New("recurrence: expansion requires an end bound")

// Expand produces the rule's occurrence start instants inside the window.
//
// The sequence is strictly increasing, free of duplicates, and a pure
// function of its arguments: calling Expand again with the same inputs
// reproduces the same instants. Expansion stops at whichever bound is
// reached first: the rule's own end condition, windowEnd, or maxCount.
// maxCount <= 0 applies no count cap. A window that ends before it starts
// yields an empty sequence and no error.
func (e *Engine) Expand(rule Rule, windowStart, windowEnd time.Time, maxCount int) ([]time.Time, error) {
	loc := e.location
	if loc == nil {
		loc = kst
	}

	windowStart = windowStart.In(loc)
	if windowEnd.IsZero() {
		// An unbounded window only terminates when the rule or the
		// caller caps the count.
		capped := rule.End.Kind == EndAfterCount && rule.End.Count > 0
		if !capped && maxCount <= 0 {
			return nil, ErrInvalidWindow
		}
	} else {
		windowEnd = windowEnd.In(loc)
		if windowEnd.Before(windowStart) {
			return nil, nil
		}
	}

	weekdaySet := make(map[time.Weekday]struct{}, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		weekdaySet[day] = struct{}{}
	}

	switch rule.Frequency {
	case FrequencyDaily, FrequencyMonthly:
	case FrequencyWeekly:
		if len(weekdaySet) == 0 {
			return nil, ErrEmptyWeekdays
		}
	default:
		return nil, ErrInvalidFrequency
	}

	anchorDay := rule.Anchor.In(loc).Day()
	startClock := rule.StartTime.In(loc)

	occurrences := make([]time.Time, 0)
	day := windowStart
	for {
		candidate := time.Date(day.Year(), day.Month(), day.Day(),
			startClock.Hour(), startClock.Minute(), startClock.Second(), 0, loc)
		day = day.AddDate(0, 0, 1)

		if candidate.Before(windowStart) {
			continue
		}
		if !windowEnd.IsZero() && candidate.After(windowEnd) {
			break
		}
		if rule.End.Kind == EndOnDate && candidate.After(rule.End.Date.In(loc)) {
			break
		}

		include := false
		switch rule.Frequency {
		case FrequencyDaily:
			include = true
		case FrequencyWeekly:
			_, include = weekdaySet[candidate.Weekday()]
		case FrequencyMonthly:
			include = candidate.Day() == anchorDay
		}
		if !include {
			continue
		}

		occurrences = append(occurrences, candidate)
		if rule.End.Kind == EndAfterCount && len(occurrences) == rule.End.Count {
			break
		}
		if maxCount > 0 && len(occurrences) == maxCount {
			break
		}
	}

	return occurrences, nil
}
