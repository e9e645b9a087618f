package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/dance-group-manager/internal/persistence"
	"github.com/example/dance-group-manager/internal/recurrence"
)

var (
	userCounter       uint64
	groupCounter      uint64
	projectCounter    uint64
	scheduleCounter   uint64
	recurrenceCounter uint64
	attendanceCounter uint64
	sessionCounter    uint64
)

var koreaStandardTime = time.FixedZone("KST", 9*60*60)

// Schedules in this system are interpreted in Korea Standard Time, so the
// baseline lands on a Monday evening practice slot.
var referenceTime = time.Date(2026, time.March, 2, 19, 0, 0, 0, koreaStandardTime)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// KST returns the fixed Korea Standard Time location shared by fixtures.
func KST() *time.Location {
	return koreaStandardTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// NewUserFixture returns a deterministic user record with optional overrides.
func NewUserFixture(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		IsAdmin:      false,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(u *persistence.User) { u.DisplayName = name }
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// WithUserAdmin sets the admin flag on the generated fixture.
func WithUserAdmin(isAdmin bool) UserOption {
	return func(u *persistence.User) { u.IsAdmin = isAdmin }
}

// WithUserDisabled marks the generated account as disabled.
func WithUserDisabled() UserOption {
	return func(u *persistence.User) { u.Disabled = true }
}

// ----------------------------- Group fixtures ----------------------------

// GroupOption configures a generated group fixture.
type GroupOption func(*persistence.Group)

// NewGroupFixture returns a deterministic group record with optional overrides.
func NewGroupFixture(opts ...GroupOption) persistence.Group {
	idx := atomic.AddUint64(&groupCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := persistence.Group{
		ID:        fmt.Sprintf("group-%03d", idx),
		Name:      fmt.Sprintf("크루 %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithGroupID overrides the generated group ID.
func WithGroupID(id string) GroupOption {
	return func(g *persistence.Group) { g.ID = id }
}

// WithGroupName overrides the generated group name.
func WithGroupName(name string) GroupOption {
	return func(g *persistence.Group) { g.Name = name }
}

// WithGroupParent attaches the group beneath a parent group.
func WithGroupParent(parentID string) GroupOption {
	return func(g *persistence.Group) { g.ParentGroupID = &parentID }
}

// ProjectOption configures a generated project fixture.
type ProjectOption func(*persistence.Project)

// NewProjectFixture returns a deterministic project owned by the given group.
func NewProjectFixture(groupID string, opts ...ProjectOption) persistence.Project {
	idx := atomic.AddUint64(&projectCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := persistence.Project{
		ID:        fmt.Sprintf("project-%03d", idx),
		GroupID:   groupID,
		Name:      fmt.Sprintf("공연 %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithProjectID overrides the generated project ID.
func WithProjectID(id string) ProjectOption {
	return func(p *persistence.Project) { p.ID = id }
}

// WithProjectName overrides the generated project name.
func WithProjectName(name string) ProjectOption {
	return func(p *persistence.Project) { p.Name = name }
}

// NewMembershipFixture returns a role assignment for a user on a group or
// project entity.
func NewMembershipFixture(userID, entityID, role string) persistence.Membership {
	return persistence.Membership{
		UserID:    userID,
		EntityID:  entityID,
		Role:      role,
		CreatedAt: referenceTime,
	}
}

// --------------------------- Schedule fixtures ---------------------------

// ScheduleOption configures a generated schedule fixture.
type ScheduleOption func(*persistence.Schedule)

// NewScheduleFixture returns a deterministic schedule record. Each fixture is
// shifted by a day from the reference time so consecutive fixtures do not
// overlap.
func NewScheduleFixture(groupID, creatorID string, opts ...ScheduleOption) persistence.Schedule {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	starts := referenceTime.AddDate(0, 0, int(idx-1))
	ends := starts.Add(2 * time.Hour)
	fixture := persistence.Schedule{
		ID:        fmt.Sprintf("schedule-%03d", idx),
		GroupID:   groupID,
		Title:     fmt.Sprintf("정기 연습 %03d", idx),
		StartsAt:  starts,
		EndsAt:    &ends,
		CreatorID: creatorID,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithScheduleID overrides the generated schedule ID.
func WithScheduleID(id string) ScheduleOption {
	return func(s *persistence.Schedule) { s.ID = id }
}

// WithScheduleTitle overrides the generated title.
func WithScheduleTitle(title string) ScheduleOption {
	return func(s *persistence.Schedule) { s.Title = title }
}

// WithScheduleProject associates the schedule with a project.
func WithScheduleProject(projectID string) ScheduleOption {
	return func(s *persistence.Schedule) { s.ProjectID = &projectID }
}

// WithScheduleTimes sets the start and end instants.
func WithScheduleTimes(starts, ends time.Time) ScheduleOption {
	return func(s *persistence.Schedule) {
		s.StartsAt = starts
		s.EndsAt = &ends
	}
}

// WithScheduleOpenEnd clears the end instant, leaving the duration implicit.
func WithScheduleOpenEnd() ScheduleOption {
	return func(s *persistence.Schedule) { s.EndsAt = nil }
}

// WithScheduleLocation sets the venue name and coordinates used for
// geofenced check-in.
func WithScheduleLocation(name string, lat, lng float64) ScheduleOption {
	return func(s *persistence.Schedule) {
		s.LocationName = &name
		s.Latitude = &lat
		s.Longitude = &lng
	}
}

// WithScheduleLateThreshold sets the instant after which check-ins count late.
func WithScheduleLateThreshold(t time.Time) ScheduleOption {
	return func(s *persistence.Schedule) { s.LateThreshold = &t }
}

// WithScheduleAttendanceDeadline sets the last instant at which check-in is
// accepted.
func WithScheduleAttendanceDeadline(t time.Time) ScheduleOption {
	return func(s *persistence.Schedule) { s.AttendanceDeadline = &t }
}

// WithScheduleRecurrence links the schedule to a recurrence rule.
func WithScheduleRecurrence(recurrenceID string) ScheduleOption {
	return func(s *persistence.Schedule) { s.RecurrenceID = &recurrenceID }
}

// -------------------------- Recurrence fixtures --------------------------

// RecurrenceOption configures a generated recurrence rule fixture.
type RecurrenceOption func(*persistence.RecurrenceRule)

// NewRecurrenceFixture returns a weekly Monday practice rule anchored at the
// reference time.
func NewRecurrenceFixture(groupID string, opts ...RecurrenceOption) persistence.RecurrenceRule {
	idx := atomic.AddUint64(&recurrenceCounter, 1)
	fixture := persistence.RecurrenceRule{
		ID:              fmt.Sprintf("recurrence-%03d", idx),
		GroupID:         groupID,
		Frequency:       int(recurrence.FrequencyWeekly),
		Weekdays:        []time.Weekday{time.Monday},
		StartsOn:        referenceTime,
		DurationMinutes: 120,
		Title:           fmt.Sprintf("정기 연습 %03d", idx),
		EndKind:         int(recurrence.EndNever),
		CreatedAt:       referenceTime,
		UpdatedAt:       referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRecurrenceID overrides the generated rule ID.
func WithRecurrenceID(id string) RecurrenceOption {
	return func(r *persistence.RecurrenceRule) { r.ID = id }
}

// WithRecurrenceProject associates the rule with a project.
func WithRecurrenceProject(projectID string) RecurrenceOption {
	return func(r *persistence.RecurrenceRule) { r.ProjectID = &projectID }
}

// WithRecurrenceFrequency sets the expansion frequency and weekdays.
func WithRecurrenceFrequency(freq recurrence.Frequency, weekdays ...time.Weekday) RecurrenceOption {
	return func(r *persistence.RecurrenceRule) {
		r.Frequency = int(freq)
		if len(weekdays) > 0 {
			r.Weekdays = weekdays
		} else {
			r.Weekdays = nil
		}
	}
}

// WithRecurrenceEndDate terminates the rule at a fixed instant.
func WithRecurrenceEndDate(t time.Time) RecurrenceOption {
	return func(r *persistence.RecurrenceRule) {
		r.EndKind = int(recurrence.EndOnDate)
		r.EndDate = &t
		r.EndCount = nil
	}
}

// WithRecurrenceEndCount terminates the rule after a fixed occurrence count.
func WithRecurrenceEndCount(count int) RecurrenceOption {
	return func(r *persistence.RecurrenceRule) {
		r.EndKind = int(recurrence.EndAfterCount)
		r.EndCount = &count
		r.EndDate = nil
	}
}

// -------------------------- Attendance fixtures --------------------------

// AttendanceOption configures a generated attendance fixture.
type AttendanceOption func(*persistence.Attendance)

// NewAttendanceFixture returns a present check-in at the reference time.
func NewAttendanceFixture(scheduleID, userID string, opts ...AttendanceOption) persistence.Attendance {
	idx := atomic.AddUint64(&attendanceCounter, 1)
	fixture := persistence.Attendance{
		ID:         fmt.Sprintf("attendance-%03d", idx),
		ScheduleID: scheduleID,
		UserID:     userID,
		Status:     "present",
		CheckedAt:  referenceTime,
		CreatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAttendanceStatus overrides the recorded status.
func WithAttendanceStatus(status string) AttendanceOption {
	return func(a *persistence.Attendance) { a.Status = status }
}

// WithAttendanceCheckedAt overrides the check-in instant.
func WithAttendanceCheckedAt(t time.Time) AttendanceOption {
	return func(a *persistence.Attendance) { a.CheckedAt = t }
}

// WithAttendanceLocation records the reported check-in coordinates.
func WithAttendanceLocation(lat, lng float64) AttendanceOption {
	return func(a *persistence.Attendance) {
		a.CheckInLat = &lat
		a.CheckInLng = &lng
	}
}

// ---------------------------- Session fixtures ---------------------------

// SessionOption configures a generated session fixture.
type SessionOption func(*persistence.Session)

// NewSessionFixture returns a session valid for 24 hours from the reference
// time.
func NewSessionFixture(userID string, opts ...SessionOption) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := persistence.Session{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(s *persistence.Session) { s.Token = token }
}

// WithSessionExpiry overrides the expiry instant.
func WithSessionExpiry(t time.Time) SessionOption {
	return func(s *persistence.Session) { s.ExpiresAt = t }
}

// WithSessionRevokedAt marks the session as revoked at the given instant.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(s *persistence.Session) { s.RevokedAt = &t }
}

// ----------------------------- Tree fixtures -----------------------------

// CrewTree bundles a crew with one sub-group, one project, and leader,
// sub-leader, and member assignments. It mirrors the smallest hierarchy that
// exercises role inheritance.
type CrewTree struct {
	Crew        persistence.Group
	Team        persistence.Group
	Project     persistence.Project
	Leader      persistence.User
	SubLeader   persistence.User
	Member      persistence.User
	Memberships []persistence.Membership
}

// NewCrewTree builds the canonical crew hierarchy fixture.
func NewCrewTree() CrewTree {
	crew := NewGroupFixture(WithGroupName("크루"))
	team := NewGroupFixture(WithGroupName("공연팀"), WithGroupParent(crew.ID))
	project := NewProjectFixture(team.ID, WithProjectName("봄 공연"))

	leader := NewUserFixture(WithUserDisplayName("김지은"))
	subLeader := NewUserFixture(WithUserDisplayName("박민수"))
	member := NewUserFixture(WithUserDisplayName("이서연"))

	return CrewTree{
		Crew:      crew,
		Team:      team,
		Project:   project,
		Leader:    leader,
		SubLeader: subLeader,
		Member:    member,
		Memberships: []persistence.Membership{
			NewMembershipFixture(leader.ID, crew.ID, "leader"),
			NewMembershipFixture(subLeader.ID, team.ID, "sub_leader"),
			NewMembershipFixture(member.ID, team.ID, "member"),
		},
	}
}
