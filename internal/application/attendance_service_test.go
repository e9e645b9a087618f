package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/dance-group-manager/internal/attendance"
	"github.com/example/dance-group-manager/internal/persistence"
)

type attendanceRepositoryStub struct {
	records map[string]AttendanceRecord
}

func newAttendanceRepositoryStub() *attendanceRepositoryStub {
	return &attendanceRepositoryStub{records: make(map[string]AttendanceRecord)}
}

func attendanceKey(scheduleID, userID string) string {
	return scheduleID + "|" + userID
}

func (s *attendanceRepositoryStub) CreateAttendance(ctx context.Context, record AttendanceRecord) (AttendanceRecord, error) {
	key := attendanceKey(record.ScheduleID, record.UserID)
	if _, ok := s.records[key]; ok {
		return AttendanceRecord{}, persistence.ErrDuplicate
	}
	s.records[key] = record
	return record, nil
}

func (s *attendanceRepositoryStub) GetAttendance(ctx context.Context, scheduleID, userID string) (AttendanceRecord, error) {
	record, ok := s.records[attendanceKey(scheduleID, userID)]
	if !ok {
		return AttendanceRecord{}, persistence.ErrNotFound
	}
	return record, nil
}

func (s *attendanceRepositoryStub) ListAttendanceForSchedule(ctx context.Context, scheduleID string) ([]AttendanceRecord, error) {
	out := make([]AttendanceRecord, 0)
	for _, record := range s.records {
		if record.ScheduleID == scheduleID {
			out = append(out, record)
		}
	}
	return out, nil
}

type attendanceFixture struct {
	service   *AttendanceService
	records   *attendanceRepositoryStub
	schedules *scheduleRepositoryStub
	now       time.Time
}

// newAttendanceFixture seeds the 2026-03-02 19:00 KST practice and a
// clock inside its check-in window.
func newAttendanceFixture(now time.Time, geofenced bool) attendanceFixture {
	schedules := newScheduleRepositoryStub()
	end := practiceStart().Add(2 * time.Hour)
	schedule := Schedule{
		ID:       "practice-1",
		GroupID:  "team-1",
		Title:    "정기 연습",
		StartsAt: practiceStart(),
		EndsAt:   &end,
	}
	if geofenced {
		lat, lng := 37.5, 127.0
		schedule.Latitude = &lat
		schedule.Longitude = &lng
	}
	schedules.schedules[schedule.ID] = schedule

	records := newAttendanceRepositoryStub()
	hierarchy := newTestGroupService(crewFixture())
	seq := 0
	svc := NewAttendanceService(records, schedules, hierarchy, attendance.Config{}, func() string {
		seq++
		return fmt.Sprintf("attendance-%d", seq)
	}, func() time.Time { return now })

	return attendanceFixture{service: svc, records: records, schedules: schedules, now: now}
}

func TestAttendanceService_CheckIn(t *testing.T) {
	t.Parallel()

	t.Run("on-time check-in records present", func(t *testing.T) {
		t.Parallel()

		fx := newAttendanceFixture(practiceStart().Add(-10*time.Minute), false)
		record, err := fx.service.CheckIn(context.Background(), CheckInParams{
			Principal:  Principal{UserID: "member-1"},
			ScheduleID: "practice-1",
		})
		if err != nil {
			t.Fatalf("CheckIn failed: %v", err)
		}
		if record.Status != string(attendance.StatusPresent) {
			t.Fatalf("expected present, got %q", record.Status)
		}
		if !record.CheckedAt.Equal(fx.now) {
			t.Fatalf("expected check-in at %v, got %v", fx.now, record.CheckedAt)
		}
	})

	t.Run("check-in after the start records late", func(t *testing.T) {
		t.Parallel()

		fx := newAttendanceFixture(practiceStart().Add(5*time.Minute), false)
		record, err := fx.service.CheckIn(context.Background(), CheckInParams{
			Principal:  Principal{UserID: "member-1"},
			ScheduleID: "practice-1",
		})
		if err != nil {
			t.Fatalf("CheckIn failed: %v", err)
		}
		if record.Status != string(attendance.StatusLate) {
			t.Fatalf("expected late, got %q", record.Status)
		}
	})

	t.Run("rejects check-in outside the window", func(t *testing.T) {
		t.Parallel()

		fx := newAttendanceFixture(practiceStart().Add(-time.Hour), false)
		_, err := fx.service.CheckIn(context.Background(), CheckInParams{
			Principal:  Principal{UserID: "member-1"},
			ScheduleID: "practice-1",
		})
		if !errors.Is(err, attendance.ErrWindowClosed) {
			t.Fatalf("expected ErrWindowClosed, got %v", err)
		}
	})

	t.Run("geofenced schedules require a nearby location", func(t *testing.T) {
		t.Parallel()

		fx := newAttendanceFixture(practiceStart(), true)

		_, err := fx.service.CheckIn(context.Background(), CheckInParams{
			Principal:  Principal{UserID: "member-1"},
			ScheduleID: "practice-1",
		})
		if !errors.Is(err, attendance.ErrLocationRequired) {
			t.Fatalf("expected ErrLocationRequired, got %v", err)
		}

		farLat, farLng := 37.5018, 127.0
		_, err = fx.service.CheckIn(context.Background(), CheckInParams{
			Principal:  Principal{UserID: "member-1"},
			ScheduleID: "practice-1",
			Latitude:   &farLat,
			Longitude:  &farLng,
		})
		if !errors.Is(err, attendance.ErrOutOfRange) {
			t.Fatalf("expected ErrOutOfRange, got %v", err)
		}

		nearLat, nearLng := 37.5009, 127.0
		record, err := fx.service.CheckIn(context.Background(), CheckInParams{
			Principal:  Principal{UserID: "member-1"},
			ScheduleID: "practice-1",
			Latitude:   &nearLat,
			Longitude:  &nearLng,
		})
		if err != nil {
			t.Fatalf("CheckIn failed: %v", err)
		}
		if record.Latitude == nil || *record.Latitude != nearLat {
			t.Fatalf("expected reported location to be stored, got %#v", record)
		}
	})

	t.Run("second check-in is rejected", func(t *testing.T) {
		t.Parallel()

		fx := newAttendanceFixture(practiceStart(), false)
		params := CheckInParams{Principal: Principal{UserID: "member-1"}, ScheduleID: "practice-1"}

		if _, err := fx.service.CheckIn(context.Background(), params); err != nil {
			t.Fatalf("first CheckIn failed: %v", err)
		}
		if _, err := fx.service.CheckIn(context.Background(), params); !errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
		}
	})

	t.Run("strangers cannot check in", func(t *testing.T) {
		t.Parallel()

		fx := newAttendanceFixture(practiceStart(), false)
		_, err := fx.service.CheckIn(context.Background(), CheckInParams{
			Principal:  Principal{UserID: "stranger-1"},
			ScheduleID: "practice-1",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAttendanceService_ListAttendance(t *testing.T) {
	t.Parallel()

	fx := newAttendanceFixture(practiceStart(), false)
	fx.records.records[attendanceKey("practice-1", "member-1")] = AttendanceRecord{
		ID: "a-1", ScheduleID: "practice-1", UserID: "member-1", Status: "present",
	}

	t.Run("sub-leaders can list all records", func(t *testing.T) {
		t.Parallel()

		records, err := fx.service.ListAttendance(context.Background(), Principal{UserID: "sub-leader-1"}, "practice-1")
		if err != nil {
			t.Fatalf("ListAttendance failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected one record, got %#v", records)
		}
	})

	t.Run("members cannot list attendance", func(t *testing.T) {
		t.Parallel()

		if _, err := fx.service.ListAttendance(context.Background(), Principal{UserID: "member-1"}, "practice-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("members read their own record", func(t *testing.T) {
		t.Parallel()

		record, err := fx.service.GetOwnAttendance(context.Background(), Principal{UserID: "member-1"}, "practice-1")
		if err != nil {
			t.Fatalf("GetOwnAttendance failed: %v", err)
		}
		if record.UserID != "member-1" {
			t.Fatalf("unexpected record %#v", record)
		}
	})
}

func TestAttendanceService_WindowFor(t *testing.T) {
	t.Parallel()

	fx := newAttendanceFixture(practiceStart().Add(-time.Hour), false)
	opensAt, deadline, state, err := fx.service.WindowFor(context.Background(), Principal{UserID: "member-1"}, "practice-1")
	if err != nil {
		t.Fatalf("WindowFor failed: %v", err)
	}
	if !opensAt.Equal(practiceStart().Add(-30 * time.Minute)) {
		t.Fatalf("expected window to open 30 minutes early, got %v", opensAt)
	}
	if !deadline.Equal(practiceStart().Add(2*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected deadline 30 minutes after the end, got %v", deadline)
	}
	if state != attendance.WindowNotYetOpen {
		t.Fatalf("expected not_yet_open, got %q", state)
	}
}
