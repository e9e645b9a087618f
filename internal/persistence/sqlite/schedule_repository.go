package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/dance-group-manager/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository using SQLite.
type ScheduleRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewScheduleRepository creates a new SQLite schedule repository.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool, mapper: NewErrorMapper()}
}

const scheduleColumns = `id, group_id, project_id, title, description, location_name,
	latitude, longitude, starts_at, ends_at, late_threshold, attendance_deadline,
	recurrence_id, creator_id, created_at, updated_at`

// CreateSchedule inserts a new schedule.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	schedule.CreatedAt = stampOrNow(schedule.CreatedAt)
	schedule.UpdatedAt = stampOrNow(schedule.UpdatedAt)

	_, err := r.pool.DB().ExecContext(ctx,
		"INSERT INTO schedules ("+scheduleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		schedule.ID,
		schedule.GroupID,
		nullString(schedule.ProjectID),
		schedule.Title,
		nullString(schedule.Description),
		nullString(schedule.LocationName),
		nullFloat(schedule.Latitude),
		nullFloat(schedule.Longitude),
		formatTime(schedule.StartsAt),
		nullTime(schedule.EndsAt),
		nullTime(schedule.LateThreshold),
		nullTime(schedule.AttendanceDeadline),
		nullString(schedule.RecurrenceID),
		schedule.CreatorID,
		formatTime(schedule.CreatedAt),
		formatTime(schedule.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateSchedule updates an existing schedule. The creator is immutable.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE schedules SET group_id = ?, project_id = ?, title = ?, description = ?,
			location_name = ?, latitude = ?, longitude = ?, starts_at = ?, ends_at = ?,
			late_threshold = ?, attendance_deadline = ?, recurrence_id = ?, updated_at = ?
		 WHERE id = ?`,
		schedule.GroupID,
		nullString(schedule.ProjectID),
		schedule.Title,
		nullString(schedule.Description),
		nullString(schedule.LocationName),
		nullFloat(schedule.Latitude),
		nullFloat(schedule.Longitude),
		formatTime(schedule.StartsAt),
		nullTime(schedule.EndsAt),
		nullTime(schedule.LateThreshold),
		nullTime(schedule.AttendanceDeadline),
		nullString(schedule.RecurrenceID),
		formatTime(stampOrNow(schedule.UpdatedAt)),
		schedule.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// GetSchedule retrieves a schedule by id.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	if id == "" {
		return persistence.Schedule{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT "+scheduleColumns+" FROM schedules WHERE id = ?", id)
	return r.scanSchedule(row)
}

// ListSchedules lists schedules matching the filter, ordered by start.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, filter persistence.ScheduleFilter) ([]persistence.Schedule, error) {
	query := "SELECT " + scheduleColumns + " FROM schedules"

	var conditions []string
	var args []any

	if filter.GroupID != "" {
		conditions = append(conditions, "group_id = ?")
		args = append(args, filter.GroupID)
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "starts_at >= ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "starts_at < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY starts_at ASC, id ASC"

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var schedules []persistence.Schedule
	for rows.Next() {
		schedule, err := r.scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return schedules, nil
}

// DeleteSchedule removes a schedule and its attendance records.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM attendance_records WHERE schedule_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := tx.Exec("DELETE FROM schedules WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireRowsAffected(result)
	})
}

func (r *ScheduleRepository) scanSchedule(row rowScanner) (persistence.Schedule, error) {
	var schedule persistence.Schedule
	var projectID, description, locationName, recurrenceID sql.NullString
	var latitude, longitude sql.NullFloat64
	var startsAt, createdAt, updatedAt string
	var endsAt, lateThreshold, deadline sql.NullString

	err := row.Scan(
		&schedule.ID,
		&schedule.GroupID,
		&projectID,
		&schedule.Title,
		&description,
		&locationName,
		&latitude,
		&longitude,
		&startsAt,
		&endsAt,
		&lateThreshold,
		&deadline,
		&recurrenceID,
		&schedule.CreatorID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Schedule{}, persistence.ErrNotFound
		}
		return persistence.Schedule{}, r.mapper.MapError(err)
	}

	schedule.ProjectID = stringPtr(projectID)
	schedule.Description = stringPtr(description)
	schedule.LocationName = stringPtr(locationName)
	schedule.RecurrenceID = stringPtr(recurrenceID)
	schedule.Latitude = floatPtr(latitude)
	schedule.Longitude = floatPtr(longitude)

	if schedule.StartsAt, err = parseTime("starts_at", startsAt); err != nil {
		return persistence.Schedule{}, err
	}
	if schedule.EndsAt, err = parseTimePtr("ends_at", endsAt); err != nil {
		return persistence.Schedule{}, err
	}
	if schedule.LateThreshold, err = parseTimePtr("late_threshold", lateThreshold); err != nil {
		return persistence.Schedule{}, err
	}
	if schedule.AttendanceDeadline, err = parseTimePtr("attendance_deadline", deadline); err != nil {
		return persistence.Schedule{}, err
	}
	if schedule.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Schedule{}, err
	}
	if schedule.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Schedule{}, err
	}
	return schedule, nil
}
