package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/dance-group-manager/internal/persistence"
)

// AttendanceRepository implements persistence.AttendanceRepository using
// SQLite. The UNIQUE(schedule_id, user_id) key makes CreateAttendance an
// insert-if-absent.
type AttendanceRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewAttendanceRepository creates a new SQLite attendance repository.
func NewAttendanceRepository(pool *ConnectionPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool, mapper: NewErrorMapper()}
}

const attendanceColumns = "id, schedule_id, user_id, status, checked_at, check_in_lat, check_in_lng, created_at"

// CreateAttendance inserts a check-in record. A second record for the
// same (schedule, user) pair fails with persistence.ErrDuplicate.
func (r *AttendanceRepository) CreateAttendance(ctx context.Context, record persistence.Attendance) error {
	if record.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx,
		"INSERT INTO attendance_records ("+attendanceColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		record.ID,
		record.ScheduleID,
		record.UserID,
		record.Status,
		formatTime(record.CheckedAt),
		nullFloat(record.CheckInLat),
		nullFloat(record.CheckInLng),
		formatTime(stampOrNow(record.CreatedAt)),
	)
	return r.mapper.MapError(err)
}

// GetAttendance retrieves the record for a (schedule, user) pair.
func (r *AttendanceRepository) GetAttendance(ctx context.Context, scheduleID, userID string) (persistence.Attendance, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance_records WHERE schedule_id = ? AND user_id = ?",
		scheduleID, userID)
	return r.scanAttendance(row)
}

// ListAttendanceForSchedule returns every record for a schedule ordered
// by check-in instant.
func (r *AttendanceRepository) ListAttendanceForSchedule(ctx context.Context, scheduleID string) ([]persistence.Attendance, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance_records WHERE schedule_id = ? ORDER BY checked_at ASC, id ASC",
		scheduleID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.Attendance
	for rows.Next() {
		record, err := r.scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

func (r *AttendanceRepository) scanAttendance(row rowScanner) (persistence.Attendance, error) {
	var record persistence.Attendance
	var checkedAt, createdAt string
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&record.ID,
		&record.ScheduleID,
		&record.UserID,
		&record.Status,
		&checkedAt,
		&lat,
		&lng,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Attendance{}, persistence.ErrNotFound
		}
		return persistence.Attendance{}, r.mapper.MapError(err)
	}

	record.CheckInLat = floatPtr(lat)
	record.CheckInLng = floatPtr(lng)
	if record.CheckedAt, err = parseTime("checked_at", checkedAt); err != nil {
		return persistence.Attendance{}, err
	}
	if record.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Attendance{}, err
	}
	return record, nil
}
