package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Group represents a dance group or sub-group exposed by the services.
type Group struct {
	ID            string
	Name          string
	ParentGroupID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GroupInput captures caller provided group fields.
type GroupInput struct {
	Name          string
	ParentGroupID *string
}

// Project represents a project owned by a group.
type Project struct {
	ID        string
	GroupID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectInput captures caller provided project fields.
type ProjectInput struct {
	GroupID string
	Name    string
}

// Membership assigns a user a role on a group or project.
type Membership struct {
	UserID    string
	EntityID  string
	Role      string
	CreatedAt time.Time
}

// PermissionSet is the resolved authority a user holds on an entity.
type PermissionSet struct {
	Role         string
	Capabilities []string
}

// Schedule represents a persisted practice or performance schedule.
type Schedule struct {
	ID                 string
	GroupID            string
	ProjectID          *string
	Title              string
	Description        *string
	LocationName       *string
	Latitude           *float64
	Longitude          *float64
	StartsAt           time.Time
	EndsAt             *time.Time
	LateThreshold      *time.Time
	AttendanceDeadline *time.Time
	RecurrenceID       *string
	CreatorID          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ScheduleInput captures caller provided schedule fields. Latitude and
// Longitude must be set together; their presence enables geofenced
// check-in.
type ScheduleInput struct {
	GroupID            string
	ProjectID          *string
	Title              string
	Description        *string
	LocationName       *string
	Latitude           *float64
	Longitude          *float64
	StartsAt           time.Time
	EndsAt             *time.Time
	LateThreshold      *time.Time
	AttendanceDeadline *time.Time
}

// ConflictWarning describes a scheduling overlap surfaced to callers.
// Warnings are advisory; they never block the operation.
type ConflictWarning struct {
	ScheduleID string
	Title      string
	Start      time.Time
	End        time.Time
}

// CreateScheduleParams wraps the data required to create a schedule.
type CreateScheduleParams struct {
	Principal Principal
	Input     ScheduleInput
}

// UpdateScheduleParams wraps the data required to update an existing schedule.
type UpdateScheduleParams struct {
	Principal  Principal
	ScheduleID string
	Input      ScheduleInput
}

// ListPeriod identifies the range preset requested for schedule listings.
type ListPeriod string

const (
	// ListPeriodNone indicates no preset; caller supplied explicit bounds.
	ListPeriodNone ListPeriod = ""
	// ListPeriodDay constrains results to a single day.
	ListPeriodDay ListPeriod = "day"
	// ListPeriodWeek constrains results to the Monday-start week containing the reference time.
	ListPeriodWeek ListPeriod = "week"
	// ListPeriodMonth constrains results to the month containing the reference time.
	ListPeriodMonth ListPeriod = "month"
)

// ListSchedulesParams wraps the data required to list schedules.
type ListSchedulesParams struct {
	Principal       Principal
	GroupID         string
	ProjectID       *string
	StartsAfter     *time.Time
	EndsBefore      *time.Time
	Period          ListPeriod
	PeriodReference time.Time
}

// RecurrenceInput captures caller provided recurrence rule fields.
type RecurrenceInput struct {
	GroupID         string
	ProjectID       *string
	Frequency       string // daily, weekly, monthly
	Weekdays        []time.Weekday
	StartsOn        time.Time // anchor date carrying the start time of day
	DurationMinutes int
	Title           string
	LocationName    *string
	End             string // never, on_date, after_count
	EndDate         *time.Time
	EndCount        *int
}

// Recurrence represents a persisted recurrence rule.
type Recurrence struct {
	ID              string
	GroupID         string
	ProjectID       *string
	Frequency       string
	Weekdays        []time.Weekday
	StartsOn        time.Time
	DurationMinutes int
	Title           string
	LocationName    *string
	End             string
	EndDate         *time.Time
	EndCount        *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateRecurrenceParams wraps the data required to create a rule and
// materialize its upcoming occurrences as schedules.
type CreateRecurrenceParams struct {
	Principal Principal
	Input     RecurrenceInput
	// HorizonDays bounds materialization from the rule's anchor.
	// Non-positive values use the service default.
	HorizonDays int
}

// CreateRecurrenceResult carries the rule, the schedules it produced, and
// any advisory conflicts.
type CreateRecurrenceResult struct {
	Recurrence Recurrence
	Schedules  []Schedule
	Warnings   []ConflictWarning
}

// PreviewRecurrenceParams wraps the data required to preview a rule's
// occurrences without persisting anything.
type PreviewRecurrenceParams struct {
	Principal   Principal
	Input       RecurrenceInput
	WindowStart time.Time
	WindowEnd   time.Time
	MaxCount    int
}

// AttendanceRecord represents a member's check-in for a schedule.
type AttendanceRecord struct {
	ID         string
	ScheduleID string
	UserID     string
	Status     string
	CheckedAt  time.Time
	Latitude   *float64
	Longitude  *float64
}

// CheckInParams wraps the data required to record attendance. Latitude
// and Longitude carry the reported device location when present.
type CheckInParams struct {
	Principal  Principal
	ScheduleID string
	Latitude   *float64
	Longitude  *float64
}

// UserInput captures caller provided user attributes. Password is only
// read on creation.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
	Disabled    bool
}

// User represents a member account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	Disabled    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
