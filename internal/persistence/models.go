package persistence

import "time"

// User represents a member account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// Group represents a dance group or a sub-group under a parent group.
type Group struct {
	ID            string
	Name          string
	ParentGroupID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Project represents a project owned by a group.
type Project struct {
	ID        string
	GroupID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership assigns a user a role on a group or project. EntityID refers
// to either a group id or a project id.
type Membership struct {
	UserID    string
	EntityID  string
	Role      string
	CreatedAt time.Time
}

// Schedule represents a calendar entry stored in persistence. Latitude
// and Longitude are set together; their presence enables geofenced
// check-in.
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

// RecurrenceRule represents a recurring schedule configuration.
type RecurrenceRule struct {
	ID              string
	GroupID         string
	ProjectID       *string
	Frequency       int
	Weekdays        []time.Weekday
	StartsOn        time.Time // anchor date carrying the start time of day
	DurationMinutes int
	Title           string
	LocationName    *string
	EndKind         int
	EndDate         *time.Time
	EndCount        *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Attendance represents a member's check-in for a schedule. Records are
// immutable once written.
type Attendance struct {
	ID          string
	ScheduleID  string
	UserID      string
	Status      string
	CheckedAt   time.Time
	CheckInLat  *float64
	CheckInLng  *float64
	CreatedAt   time.Time
}
