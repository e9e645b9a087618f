package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// GroupRepository stores the group/project tree and its memberships.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group Group) error
	UpdateGroup(ctx context.Context, group Group) error
	GetGroup(ctx context.Context, id string) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	DeleteGroup(ctx context.Context, id string) error

	CreateProject(ctx context.Context, project Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error

	PutMembership(ctx context.Context, membership Membership) error
	DeleteMembership(ctx context.Context, userID, entityID string) error
	ListMemberships(ctx context.Context) ([]Membership, error)
	ListMembershipsForEntity(ctx context.Context, entityID string) ([]Membership, error)
}

// ScheduleFilter narrows schedule queries. Bounds compare against the
// schedule start.
type ScheduleFilter struct {
	GroupID     string
	ProjectID   *string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ScheduleRepository stores schedule entries.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) error
	UpdateSchedule(ctx context.Context, schedule Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// RecurrenceRepository stores recurrence rules.
type RecurrenceRepository interface {
	CreateRecurrence(ctx context.Context, rule RecurrenceRule) error
	GetRecurrence(ctx context.Context, id string) (RecurrenceRule, error)
	ListRecurrencesForGroup(ctx context.Context, groupID string) ([]RecurrenceRule, error)
	DeleteRecurrence(ctx context.Context, id string) error
}

// AttendanceRepository stores check-in records. CreateAttendance is an
// insert-if-absent: a second record for the same (schedule, user) pair
// fails with ErrDuplicate.
type AttendanceRepository interface {
	CreateAttendance(ctx context.Context, record Attendance) error
	GetAttendance(ctx context.Context, scheduleID, userID string) (Attendance, error)
	ListAttendanceForSchedule(ctx context.Context, scheduleID string) ([]Attendance, error)
}
