package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/dance-group-manager/internal/attendance"
	"github.com/example/dance-group-manager/internal/authz"
	"github.com/example/dance-group-manager/internal/geo"
)

// AttendanceRepository captures the persistence interactions for
// attendance records. CreateAttendance must reject a second record for
// the same schedule and user with ErrDuplicate semantics.
type AttendanceRepository interface {
	CreateAttendance(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error)
	GetAttendance(ctx context.Context, scheduleID, userID string) (AttendanceRecord, error)
	ListAttendanceForSchedule(ctx context.Context, scheduleID string) ([]AttendanceRecord, error)
}

// ScheduleReader is the read-only slice of the schedule repository the
// attendance service needs.
type ScheduleReader interface {
	GetSchedule(ctx context.Context, id string) (Schedule, error)
}

// AttendanceService records check-ins against the schedule's attendance
// window and serves attendance listings.
type AttendanceService struct {
	records     AttendanceRepository
	schedules   ScheduleReader
	hierarchy   HierarchyProvider
	evaluator   *attendance.Evaluator
	idGenerator func() string
	now         func() time.Time
}

// NewAttendanceService wires dependencies for attendance operations. A
// zero-value config falls back to the evaluator defaults.
func NewAttendanceService(records AttendanceRepository, schedules ScheduleReader, hierarchy HierarchyProvider, cfg attendance.Config, idGenerator func() string, now func() time.Time) *AttendanceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{
		records:     records,
		schedules:   schedules,
		hierarchy:   hierarchy,
		evaluator:   attendance.NewEvaluator(cfg),
		idGenerator: idGenerator,
		now:         now,
	}
}

// CheckIn records the principal's attendance for a schedule. The window,
// geofence, and duplicate constraints are enforced; the late/present
// classification comes from the evaluator.
func (s *AttendanceService) CheckIn(ctx context.Context, params CheckInParams) (AttendanceRecord, error) {
	if s == nil {
		return AttendanceRecord{}, fmt.Errorf("AttendanceService is nil")
	}
	if s.records == nil || s.schedules == nil {
		return AttendanceRecord{}, fmt.Errorf("attendance repository not configured")
	}

	schedule, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return AttendanceRecord{}, mapRepoError(err)
	}

	if err := authorize(ctx, s.hierarchy, params.Principal, scheduleEntityID(schedule.GroupID, schedule.ProjectID), authz.CapViewSchedule); err != nil {
		return AttendanceRecord{}, err
	}

	event := toAttendanceEvent(schedule)

	var reported *geo.Point
	if params.Latitude != nil && params.Longitude != nil {
		reported = &geo.Point{Latitude: *params.Latitude, Longitude: *params.Longitude}
	}

	record, err := s.evaluator.CheckIn(event, params.Principal.UserID, s.now(), reported)
	if err != nil {
		return AttendanceRecord{}, err
	}

	stored := AttendanceRecord{
		ID:         s.idGenerator(),
		ScheduleID: record.ScheduleID,
		UserID:     record.UserID,
		Status:     string(record.Status),
		CheckedAt:  record.CheckedAt,
		Latitude:   params.Latitude,
		Longitude:  params.Longitude,
	}

	persisted, err := s.records.CreateAttendance(ctx, stored)
	if err != nil {
		mapped := mapRepoError(err)
		if errors.Is(mapped, ErrAlreadyExists) {
			return AttendanceRecord{}, attendance.ErrAlreadyCheckedIn
		}
		return AttendanceRecord{}, mapped
	}
	return persisted, nil
}

// GetOwnAttendance returns the principal's record for a schedule.
func (s *AttendanceService) GetOwnAttendance(ctx context.Context, principal Principal, scheduleID string) (AttendanceRecord, error) {
	if s == nil {
		return AttendanceRecord{}, fmt.Errorf("AttendanceService is nil")
	}
	if s.records == nil {
		return AttendanceRecord{}, fmt.Errorf("attendance repository not configured")
	}

	record, err := s.records.GetAttendance(ctx, scheduleID, principal.UserID)
	if err != nil {
		return AttendanceRecord{}, mapRepoError(err)
	}
	return record, nil
}

// ListAttendance returns every record for a schedule. Requires the
// ManageAttendance capability on the schedule's entity.
func (s *AttendanceService) ListAttendance(ctx context.Context, principal Principal, scheduleID string) ([]AttendanceRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("AttendanceService is nil")
	}
	if s.records == nil || s.schedules == nil {
		return nil, fmt.Errorf("attendance repository not configured")
	}

	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if err := authorize(ctx, s.hierarchy, principal, scheduleEntityID(schedule.GroupID, schedule.ProjectID), authz.CapManageAttendance); err != nil {
		return nil, err
	}

	records, err := s.records.ListAttendanceForSchedule(ctx, scheduleID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return records, nil
}

// WindowFor exposes the attendance window computed for a schedule, for
// presentation alongside schedule details.
func (s *AttendanceService) WindowFor(ctx context.Context, principal Principal, scheduleID string) (opensAt, deadline time.Time, state attendance.WindowState, err error) {
	if s == nil {
		err = fmt.Errorf("AttendanceService is nil")
		return
	}
	if s.schedules == nil {
		err = fmt.Errorf("attendance repository not configured")
		return
	}

	schedule, getErr := s.schedules.GetSchedule(ctx, scheduleID)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	if authErr := authorize(ctx, s.hierarchy, principal, scheduleEntityID(schedule.GroupID, schedule.ProjectID), authz.CapViewSchedule); authErr != nil {
		err = authErr
		return
	}

	event := toAttendanceEvent(schedule)
	opensAt, deadline = s.evaluator.Window(event)
	state = s.evaluator.State(event, s.now())
	return
}

func toAttendanceEvent(schedule Schedule) attendance.Event {
	event := attendance.Event{
		ScheduleID:    schedule.ID,
		StartsAt:      schedule.StartsAt,
		EndsAt:        schedule.EndsAt,
		LateThreshold: schedule.LateThreshold,
		Deadline:      schedule.AttendanceDeadline,
	}
	if schedule.Latitude != nil && schedule.Longitude != nil {
		event.Location = &geo.Point{Latitude: *schedule.Latitude, Longitude: *schedule.Longitude}
	}
	return event
}
