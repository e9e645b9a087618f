// Package attendance evaluates check-in windows, geofencing, and
// present/late classification for schedules.
package attendance

import (
	"errors"
	"time"

	"github.com/example/dance-group-manager/internal/geo"
)

// Status classifies a completed check-in.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
)

// WindowState describes where a given instant falls relative to a
// schedule's check-in window.
type WindowState string

const (
	WindowNotYetOpen WindowState = "not_yet_open"
	WindowOpen       WindowState = "open"
	WindowClosed     WindowState = "closed"
)

// ErrWindowClosed indicates the check-in window is not open, whether it
// has yet to open or has already closed.
var ErrWindowClosed = errors.New("attendance: check-in window is not open")

// ErrLocationRequired indicates a geofenced schedule received a check-in
// without a reported location.
var ErrLocationRequired = errors.New("attendance: location is required for this schedule")

// ErrOutOfRange indicates the reported location is outside the geofence.
var ErrOutOfRange = errors.New("attendance: reported location is out of range")

// ErrAlreadyCheckedIn indicates the user already has an attendance record
// for the schedule.
var ErrAlreadyCheckedIn = errors.New("attendance: already checked in")

// Config carries the tunable window and geofence constants.
type Config struct {
	// PreOpen is how long before the schedule start the window opens.
	PreOpen time.Duration
	// PostClose is how long after the schedule's effective end the window
	// closes when no explicit deadline is set.
	PostClose time.Duration
	// RadiusMeters is the geofence radius for schedules with coordinates.
	RadiusMeters float64
	// DefaultEventDuration substitutes for a missing schedule end.
	DefaultEventDuration time.Duration
}

// DefaultConfig returns the standard window constants.
func DefaultConfig() Config {
	return Config{
		PreOpen:              30 * time.Minute,
		PostClose:            30 * time.Minute,
		RadiusMeters:         150,
		DefaultEventDuration: 2 * time.Hour,
	}
}

// Event is the slice of a schedule the evaluator needs.
type Event struct {
	ScheduleID    string
	StartsAt      time.Time
	EndsAt        *time.Time
	LateThreshold *time.Time
	Deadline      *time.Time
	// Location enables geofencing when present.
	Location *geo.Point
}

// Record is the outcome of a successful check-in. Records are immutable
// once written.
type Record struct {
	ScheduleID  string
	UserID      string
	Status      Status
	CheckedAt   time.Time
	CheckedInAt *geo.Point
}

// Evaluator applies the check-in rules. The zero value is not usable;
// construct with NewEvaluator.
type Evaluator struct {
	cfg Config
}

// NewEvaluator constructs an Evaluator. Non-positive config fields fall
// back to their defaults.
func NewEvaluator(cfg Config) *Evaluator {
	def := DefaultConfig()
	if cfg.PreOpen <= 0 {
		cfg.PreOpen = def.PreOpen
	}
	if cfg.PostClose <= 0 {
		cfg.PostClose = def.PostClose
	}
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = def.RadiusMeters
	}
	if cfg.DefaultEventDuration <= 0 {
		cfg.DefaultEventDuration = def.DefaultEventDuration
	}
	return &Evaluator{cfg: cfg}
}

// Window returns the inclusive bounds of the event's check-in window.
// The window opens PreOpen before the start and closes at the event's
// attendance deadline, defaulting to the effective end plus PostClose.
func (e *Evaluator) Window(event Event) (time.Time, time.Time) {
	opensAt := event.StartsAt.Add(-e.cfg.PreOpen)

	if event.Deadline != nil {
		return opensAt, *event.Deadline
	}

	end := event.StartsAt
	if event.EndsAt != nil {
		end = *event.EndsAt
	}
	return opensAt, end.Add(e.cfg.PostClose)
}

// State reports where now falls relative to the event's check-in window.
// Both bounds are inclusive.
func (e *Evaluator) State(event Event, now time.Time) WindowState {
	opensAt, closesAt := e.Window(event)
	switch {
	case now.Before(opensAt):
		return WindowNotYetOpen
	case now.After(closesAt):
		return WindowClosed
	default:
		return WindowOpen
	}
}

// CheckIn validates a check-in attempt and classifies it. It does not
// persist anything; the at-most-one-record-per-user invariant belongs to
// the store's unique key, surfaced as ErrAlreadyCheckedIn by the caller.
func (e *Evaluator) CheckIn(event Event, userID string, now time.Time, reported *geo.Point) (Record, error) {
	if e.State(event, now) != WindowOpen {
		return Record{}, ErrWindowClosed
	}

	if event.Location != nil {
		if reported == nil {
			return Record{}, ErrLocationRequired
		}
		if geo.Distance(*event.Location, *reported) > e.cfg.RadiusMeters {
			return Record{}, ErrOutOfRange
		}
	}

	return Record{
		ScheduleID:  event.ScheduleID,
		UserID:      userID,
		Status:      e.classify(event, now),
		CheckedAt:   now,
		CheckedInAt: reported,
	}, nil
}

// classify returns present when now is at or before the late threshold,
// which defaults to the schedule start.
func (e *Evaluator) classify(event Event, now time.Time) Status {
	threshold := event.StartsAt
	if event.LateThreshold != nil {
		threshold = *event.LateThreshold
	}
	if now.After(threshold) {
		return StatusLate
	}
	return StatusPresent
}
