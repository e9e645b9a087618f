package main

import (
	"context"
	"time"

	"github.com/example/dance-group-manager/internal/application"
	"github.com/example/dance-group-manager/internal/persistence"
	"github.com/example/dance-group-manager/internal/recurrence"
)

// The adapters below translate between the application-level models the
// services operate on and the persistence models the storage layer stores.
// Repository errors pass through untranslated; the services map them.

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	current, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, current.PasswordHash)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
		Disabled:     stored.Disabled,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

type groupRepositoryAdapter struct {
	repo persistence.GroupRepository
}

func newGroupRepositoryAdapter(repo persistence.GroupRepository) *groupRepositoryAdapter {
	return &groupRepositoryAdapter{repo: repo}
}

func (a *groupRepositoryAdapter) CreateGroup(ctx context.Context, group application.Group) (application.Group, error) {
	if err := a.repo.CreateGroup(ctx, toPersistenceGroup(group)); err != nil {
		return application.Group{}, err
	}
	stored, err := a.repo.GetGroup(ctx, group.ID)
	if err != nil {
		return application.Group{}, err
	}
	return toApplicationGroup(stored), nil
}

func (a *groupRepositoryAdapter) UpdateGroup(ctx context.Context, group application.Group) (application.Group, error) {
	if err := a.repo.UpdateGroup(ctx, toPersistenceGroup(group)); err != nil {
		return application.Group{}, err
	}
	stored, err := a.repo.GetGroup(ctx, group.ID)
	if err != nil {
		return application.Group{}, err
	}
	return toApplicationGroup(stored), nil
}

func (a *groupRepositoryAdapter) GetGroup(ctx context.Context, id string) (application.Group, error) {
	stored, err := a.repo.GetGroup(ctx, id)
	if err != nil {
		return application.Group{}, err
	}
	return toApplicationGroup(stored), nil
}

func (a *groupRepositoryAdapter) ListGroups(ctx context.Context) ([]application.Group, error) {
	models, err := a.repo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	groups := make([]application.Group, 0, len(models))
	for _, model := range models {
		groups = append(groups, toApplicationGroup(model))
	}
	return groups, nil
}

func (a *groupRepositoryAdapter) DeleteGroup(ctx context.Context, id string) error {
	return a.repo.DeleteGroup(ctx, id)
}

func (a *groupRepositoryAdapter) CreateProject(ctx context.Context, project application.Project) (application.Project, error) {
	if err := a.repo.CreateProject(ctx, toPersistenceProject(project)); err != nil {
		return application.Project{}, err
	}
	stored, err := a.repo.GetProject(ctx, project.ID)
	if err != nil {
		return application.Project{}, err
	}
	return toApplicationProject(stored), nil
}

func (a *groupRepositoryAdapter) GetProject(ctx context.Context, id string) (application.Project, error) {
	stored, err := a.repo.GetProject(ctx, id)
	if err != nil {
		return application.Project{}, err
	}
	return toApplicationProject(stored), nil
}

func (a *groupRepositoryAdapter) ListProjects(ctx context.Context) ([]application.Project, error) {
	models, err := a.repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]application.Project, 0, len(models))
	for _, model := range models {
		projects = append(projects, toApplicationProject(model))
	}
	return projects, nil
}

func (a *groupRepositoryAdapter) DeleteProject(ctx context.Context, id string) error {
	return a.repo.DeleteProject(ctx, id)
}

func (a *groupRepositoryAdapter) PutMembership(ctx context.Context, membership application.Membership) error {
	return a.repo.PutMembership(ctx, persistence.Membership{
		UserID:    membership.UserID,
		EntityID:  membership.EntityID,
		Role:      membership.Role,
		CreatedAt: membership.CreatedAt,
	})
}

func (a *groupRepositoryAdapter) DeleteMembership(ctx context.Context, userID, entityID string) error {
	return a.repo.DeleteMembership(ctx, userID, entityID)
}

func (a *groupRepositoryAdapter) ListMemberships(ctx context.Context) ([]application.Membership, error) {
	models, err := a.repo.ListMemberships(ctx)
	if err != nil {
		return nil, err
	}
	return toApplicationMemberships(models), nil
}

func (a *groupRepositoryAdapter) ListMembershipsForEntity(ctx context.Context, entityID string) ([]application.Membership, error) {
	models, err := a.repo.ListMembershipsForEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return toApplicationMemberships(models), nil
}

type scheduleRepositoryAdapter struct {
	repo persistence.ScheduleRepository
}

func newScheduleRepositoryAdapter(repo persistence.ScheduleRepository) *scheduleRepositoryAdapter {
	return &scheduleRepositoryAdapter{repo: repo}
}

func (a *scheduleRepositoryAdapter) CreateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if err := a.repo.CreateSchedule(ctx, toPersistenceSchedule(schedule)); err != nil {
		return application.Schedule{}, err
	}
	stored, err := a.repo.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) GetSchedule(ctx context.Context, id string) (application.Schedule, error) {
	stored, err := a.repo.GetSchedule(ctx, id)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) UpdateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if err := a.repo.UpdateSchedule(ctx, toPersistenceSchedule(schedule)); err != nil {
		return application.Schedule{}, err
	}
	stored, err := a.repo.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) DeleteSchedule(ctx context.Context, id string) error {
	return a.repo.DeleteSchedule(ctx, id)
}

func (a *scheduleRepositoryAdapter) ListSchedules(ctx context.Context, filter application.ScheduleRepositoryFilter) ([]application.Schedule, error) {
	models, err := a.repo.ListSchedules(ctx, persistence.ScheduleFilter{
		GroupID:     filter.GroupID,
		ProjectID:   cloneString(filter.ProjectID),
		StartsAfter: cloneTime(filter.StartsAfter),
		EndsBefore:  cloneTime(filter.EndsBefore),
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	schedules := make([]application.Schedule, 0, len(models))
	for _, model := range models {
		schedules = append(schedules, toApplicationSchedule(model))
	}
	return schedules, nil
}

type recurrenceRepositoryAdapter struct {
	repo persistence.RecurrenceRepository
}

func newRecurrenceRepositoryAdapter(repo persistence.RecurrenceRepository) *recurrenceRepositoryAdapter {
	return &recurrenceRepositoryAdapter{repo: repo}
}

func (a *recurrenceRepositoryAdapter) CreateRecurrence(ctx context.Context, rule application.Recurrence) (application.Recurrence, error) {
	if err := a.repo.CreateRecurrence(ctx, toPersistenceRecurrence(rule)); err != nil {
		return application.Recurrence{}, err
	}
	stored, err := a.repo.GetRecurrence(ctx, rule.ID)
	if err != nil {
		return application.Recurrence{}, err
	}
	return toApplicationRecurrence(stored), nil
}

func (a *recurrenceRepositoryAdapter) GetRecurrence(ctx context.Context, id string) (application.Recurrence, error) {
	stored, err := a.repo.GetRecurrence(ctx, id)
	if err != nil {
		return application.Recurrence{}, err
	}
	return toApplicationRecurrence(stored), nil
}

func (a *recurrenceRepositoryAdapter) DeleteRecurrence(ctx context.Context, id string) error {
	return a.repo.DeleteRecurrence(ctx, id)
}

type attendanceRepositoryAdapter struct {
	repo persistence.AttendanceRepository
}

func newAttendanceRepositoryAdapter(repo persistence.AttendanceRepository) *attendanceRepositoryAdapter {
	return &attendanceRepositoryAdapter{repo: repo}
}

func (a *attendanceRepositoryAdapter) CreateAttendance(ctx context.Context, record application.AttendanceRecord) (application.AttendanceRecord, error) {
	if err := a.repo.CreateAttendance(ctx, persistence.Attendance{
		ID:         record.ID,
		ScheduleID: record.ScheduleID,
		UserID:     record.UserID,
		Status:     record.Status,
		CheckedAt:  record.CheckedAt,
		CheckInLat: cloneFloat(record.Latitude),
		CheckInLng: cloneFloat(record.Longitude),
		CreatedAt:  record.CheckedAt,
	}); err != nil {
		return application.AttendanceRecord{}, err
	}
	stored, err := a.repo.GetAttendance(ctx, record.ScheduleID, record.UserID)
	if err != nil {
		return application.AttendanceRecord{}, err
	}
	return toApplicationAttendance(stored), nil
}

func (a *attendanceRepositoryAdapter) GetAttendance(ctx context.Context, scheduleID, userID string) (application.AttendanceRecord, error) {
	stored, err := a.repo.GetAttendance(ctx, scheduleID, userID)
	if err != nil {
		return application.AttendanceRecord{}, err
	}
	return toApplicationAttendance(stored), nil
}

func (a *attendanceRepositoryAdapter) ListAttendanceForSchedule(ctx context.Context, scheduleID string) ([]application.AttendanceRecord, error) {
	models, err := a.repo.ListAttendanceForSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	records := make([]application.AttendanceRecord, 0, len(models))
	for _, model := range models {
		records = append(records, toApplicationAttendance(model))
	}
	return records, nil
}

// recurrenceDefaultsAdapter fills the configured materialization horizon
// into create requests that do not specify one.
type recurrenceDefaultsAdapter struct {
	service     *application.ScheduleService
	horizonDays int
}

func (a *recurrenceDefaultsAdapter) CreateRecurrence(ctx context.Context, params application.CreateRecurrenceParams) (application.CreateRecurrenceResult, error) {
	if params.HorizonDays <= 0 {
		params.HorizonDays = a.horizonDays
	}
	return a.service.CreateRecurrence(ctx, params)
}

func (a *recurrenceDefaultsAdapter) PreviewRecurrence(ctx context.Context, params application.PreviewRecurrenceParams) ([]time.Time, error) {
	return a.service.PreviewRecurrence(ctx, params)
}

func (a *recurrenceDefaultsAdapter) DeleteRecurrence(ctx context.Context, principal application.Principal, recurrenceID string) error {
	return a.service.DeleteRecurrence(ctx, principal, recurrenceID)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		IsAdmin:     model.IsAdmin,
		Disabled:    model.Disabled,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: passwordHash,
		IsAdmin:      user.IsAdmin,
		Disabled:     user.Disabled,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func toApplicationGroup(model persistence.Group) application.Group {
	return application.Group{
		ID:            model.ID,
		Name:          model.Name,
		ParentGroupID: cloneString(model.ParentGroupID),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toPersistenceGroup(group application.Group) persistence.Group {
	return persistence.Group{
		ID:            group.ID,
		Name:          group.Name,
		ParentGroupID: cloneString(group.ParentGroupID),
		CreatedAt:     group.CreatedAt,
		UpdatedAt:     group.UpdatedAt,
	}
}

func toApplicationProject(model persistence.Project) application.Project {
	return application.Project{
		ID:        model.ID,
		GroupID:   model.GroupID,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceProject(project application.Project) persistence.Project {
	return persistence.Project{
		ID:        project.ID,
		GroupID:   project.GroupID,
		Name:      project.Name,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
}

func toApplicationMemberships(models []persistence.Membership) []application.Membership {
	if len(models) == 0 {
		return nil
	}
	memberships := make([]application.Membership, 0, len(models))
	for _, model := range models {
		memberships = append(memberships, application.Membership{
			UserID:    model.UserID,
			EntityID:  model.EntityID,
			Role:      model.Role,
			CreatedAt: model.CreatedAt,
		})
	}
	return memberships
}

func toApplicationSchedule(model persistence.Schedule) application.Schedule {
	return application.Schedule{
		ID:                 model.ID,
		GroupID:            model.GroupID,
		ProjectID:          cloneString(model.ProjectID),
		Title:              model.Title,
		Description:        cloneString(model.Description),
		LocationName:       cloneString(model.LocationName),
		Latitude:           cloneFloat(model.Latitude),
		Longitude:          cloneFloat(model.Longitude),
		StartsAt:           model.StartsAt,
		EndsAt:             cloneTime(model.EndsAt),
		LateThreshold:      cloneTime(model.LateThreshold),
		AttendanceDeadline: cloneTime(model.AttendanceDeadline),
		RecurrenceID:       cloneString(model.RecurrenceID),
		CreatorID:          model.CreatorID,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

func toPersistenceSchedule(schedule application.Schedule) persistence.Schedule {
	return persistence.Schedule{
		ID:                 schedule.ID,
		GroupID:            schedule.GroupID,
		ProjectID:          cloneString(schedule.ProjectID),
		Title:              schedule.Title,
		Description:        cloneString(schedule.Description),
		LocationName:       cloneString(schedule.LocationName),
		Latitude:           cloneFloat(schedule.Latitude),
		Longitude:          cloneFloat(schedule.Longitude),
		StartsAt:           schedule.StartsAt,
		EndsAt:             cloneTime(schedule.EndsAt),
		LateThreshold:      cloneTime(schedule.LateThreshold),
		AttendanceDeadline: cloneTime(schedule.AttendanceDeadline),
		RecurrenceID:       cloneString(schedule.RecurrenceID),
		CreatorID:          schedule.CreatorID,
		CreatedAt:          schedule.CreatedAt,
		UpdatedAt:          schedule.UpdatedAt,
	}
}

func toApplicationRecurrence(model persistence.RecurrenceRule) application.Recurrence {
	return application.Recurrence{
		ID:              model.ID,
		GroupID:         model.GroupID,
		ProjectID:       cloneString(model.ProjectID),
		Frequency:       frequencyToString(recurrence.Frequency(model.Frequency)),
		Weekdays:        append([]time.Weekday(nil), model.Weekdays...),
		StartsOn:        model.StartsOn,
		DurationMinutes: model.DurationMinutes,
		Title:           model.Title,
		LocationName:    cloneString(model.LocationName),
		End:             endKindToString(recurrence.EndKind(model.EndKind)),
		EndDate:         cloneTime(model.EndDate),
		EndCount:        cloneInt(model.EndCount),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toPersistenceRecurrence(rule application.Recurrence) persistence.RecurrenceRule {
	return persistence.RecurrenceRule{
		ID:              rule.ID,
		GroupID:         rule.GroupID,
		ProjectID:       cloneString(rule.ProjectID),
		Frequency:       int(frequencyFromString(rule.Frequency)),
		Weekdays:        append([]time.Weekday(nil), rule.Weekdays...),
		StartsOn:        rule.StartsOn,
		DurationMinutes: rule.DurationMinutes,
		Title:           rule.Title,
		LocationName:    cloneString(rule.LocationName),
		EndKind:         int(endKindFromString(rule.End)),
		EndDate:         cloneTime(rule.EndDate),
		EndCount:        cloneInt(rule.EndCount),
		CreatedAt:       rule.CreatedAt,
		UpdatedAt:       rule.UpdatedAt,
	}
}

func toApplicationAttendance(model persistence.Attendance) application.AttendanceRecord {
	return application.AttendanceRecord{
		ID:         model.ID,
		ScheduleID: model.ScheduleID,
		UserID:     model.UserID,
		Status:     model.Status,
		CheckedAt:  model.CheckedAt,
		Latitude:   cloneFloat(model.CheckInLat),
		Longitude:  cloneFloat(model.CheckInLng),
	}
}

func frequencyFromString(value string) recurrence.Frequency {
	switch value {
	case "daily":
		return recurrence.FrequencyDaily
	case "weekly":
		return recurrence.FrequencyWeekly
	case "monthly":
		return recurrence.FrequencyMonthly
	}
	return recurrence.FrequencyUnspecified
}

func frequencyToString(value recurrence.Frequency) string {
	switch value {
	case recurrence.FrequencyDaily:
		return "daily"
	case recurrence.FrequencyWeekly:
		return "weekly"
	case recurrence.FrequencyMonthly:
		return "monthly"
	}
	return ""
}

func endKindFromString(value string) recurrence.EndKind {
	switch value {
	case "on_date":
		return recurrence.EndOnDate
	case "after_count":
		return recurrence.EndAfterCount
	}
	return recurrence.EndNever
}

func endKindToString(value recurrence.EndKind) string {
	switch value {
	case recurrence.EndOnDate:
		return "on_date"
	case recurrence.EndAfterCount:
		return "after_count"
	}
	return "never"
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
