package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/dance-group-manager/internal/persistence"
)

// RecurrenceRepository implements persistence.RecurrenceRepository using
// SQLite.
type RecurrenceRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewRecurrenceRepository creates a new SQLite recurrence repository.
func NewRecurrenceRepository(pool *ConnectionPool) *RecurrenceRepository {
	return &RecurrenceRepository{pool: pool, mapper: NewErrorMapper()}
}

const recurrenceColumns = `id, group_id, project_id, frequency, weekdays, starts_on,
	duration_minutes, title, location_name, end_kind, end_date, end_count,
	created_at, updated_at`

// CreateRecurrence inserts a recurrence rule.
func (r *RecurrenceRepository) CreateRecurrence(ctx context.Context, rule persistence.RecurrenceRule) error {
	if rule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx,
		"INSERT INTO recurrence_rules ("+recurrenceColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rule.ID,
		rule.GroupID,
		nullString(rule.ProjectID),
		rule.Frequency,
		encodeWeekdays(rule.Weekdays),
		formatTime(rule.StartsOn),
		rule.DurationMinutes,
		rule.Title,
		nullString(rule.LocationName),
		rule.EndKind,
		nullTime(rule.EndDate),
		nullInt(rule.EndCount),
		formatTime(stampOrNow(rule.CreatedAt)),
		formatTime(stampOrNow(rule.UpdatedAt)),
	)
	return r.mapper.MapError(err)
}

// GetRecurrence retrieves a rule by id.
func (r *RecurrenceRepository) GetRecurrence(ctx context.Context, id string) (persistence.RecurrenceRule, error) {
	if id == "" {
		return persistence.RecurrenceRule{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT "+recurrenceColumns+" FROM recurrence_rules WHERE id = ?", id)
	return r.scanRule(row)
}

// ListRecurrencesForGroup returns the rules belonging to a group.
func (r *RecurrenceRepository) ListRecurrencesForGroup(ctx context.Context, groupID string) ([]persistence.RecurrenceRule, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		"SELECT "+recurrenceColumns+" FROM recurrence_rules WHERE group_id = ? ORDER BY created_at ASC, id ASC",
		groupID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rules []persistence.RecurrenceRule
	for rows.Next() {
		rule, err := r.scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rules, nil
}

// DeleteRecurrence removes a rule by id.
func (r *RecurrenceRepository) DeleteRecurrence(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM recurrence_rules WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

func (r *RecurrenceRepository) scanRule(row rowScanner) (persistence.RecurrenceRule, error) {
	var rule persistence.RecurrenceRule
	var projectID, locationName sql.NullString
	var weekdays, startsOn, createdAt, updatedAt string
	var endDate sql.NullString
	var endCount sql.NullInt64

	err := row.Scan(
		&rule.ID,
		&rule.GroupID,
		&projectID,
		&rule.Frequency,
		&weekdays,
		&startsOn,
		&rule.DurationMinutes,
		&rule.Title,
		&locationName,
		&rule.EndKind,
		&endDate,
		&endCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.RecurrenceRule{}, persistence.ErrNotFound
		}
		return persistence.RecurrenceRule{}, r.mapper.MapError(err)
	}

	rule.ProjectID = stringPtr(projectID)
	rule.LocationName = stringPtr(locationName)
	rule.EndCount = intPtr(endCount)

	if rule.Weekdays, err = decodeWeekdays(weekdays); err != nil {
		return persistence.RecurrenceRule{}, err
	}
	if rule.StartsOn, err = parseTime("starts_on", startsOn); err != nil {
		return persistence.RecurrenceRule{}, err
	}
	if rule.EndDate, err = parseTimePtr("end_date", endDate); err != nil {
		return persistence.RecurrenceRule{}, err
	}
	if rule.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.RecurrenceRule{}, err
	}
	if rule.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.RecurrenceRule{}, err
	}
	return rule, nil
}

// encodeWeekdays stores the weekday set as a comma-separated list of
// integers (time.Sunday = 0).
func encodeWeekdays(weekdays []time.Weekday) string {
	if len(weekdays) == 0 {
		return ""
	}
	parts := make([]string, len(weekdays))
	for i, day := range weekdays {
		parts[i] = strconv.Itoa(int(day))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(encoded string) ([]time.Weekday, error) {
	if encoded == "" {
		return nil, nil
	}
	parts := strings.Split(encoded, ",")
	weekdays := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 || value > 6 {
			return nil, fmt.Errorf("failed to parse weekdays %q", encoded)
		}
		weekdays = append(weekdays, time.Weekday(value))
	}
	return weekdays, nil
}
