package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/dance-group-manager/internal/authz"
	"github.com/example/dance-group-manager/internal/recurrence"
	"github.com/example/dance-group-manager/internal/scheduler"
)

// ScheduleRepository captures the persistence interactions needed by the service.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	UpdateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	ListSchedules(ctx context.Context, filter ScheduleRepositoryFilter) ([]Schedule, error)
}

// ScheduleRepositoryFilter narrows queries issued to the schedule repository.
type ScheduleRepositoryFilter struct {
	GroupID     string
	ProjectID   *string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// RecurrenceRepository captures the persistence interactions for
// recurrence rules.
type RecurrenceRepository interface {
	CreateRecurrence(ctx context.Context, rule Recurrence) (Recurrence, error)
	GetRecurrence(ctx context.Context, id string) (Recurrence, error)
	DeleteRecurrence(ctx context.Context, id string) error
}

// defaultMaterializationHorizonDays bounds how far ahead a new rule's
// occurrences are persisted as schedules.
const defaultMaterializationHorizonDays = 90

// materializationMaxOccurrences caps a single materialization run.
const materializationMaxOccurrences = 52

// ScheduleService orchestrates validation, authorization, conflict
// detection, and recurrence expansion for schedule operations.
type ScheduleService struct {
	schedules   ScheduleRepository
	recurrences RecurrenceRepository
	hierarchy   HierarchyProvider
	engine      *recurrence.Engine
	warnings    *warningCache
	idGenerator func() string
	now         func() time.Time
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(schedules ScheduleRepository, recurrences RecurrenceRepository, hierarchy HierarchyProvider, engine *recurrence.Engine, idGenerator func() string, now func() time.Time) *ScheduleService {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		schedules:   schedules,
		recurrences: recurrences,
		hierarchy:   hierarchy,
		engine:      engine,
		warnings:    newWarningCache(0, 0, now),
		idGenerator: idGenerator,
		now:         now,
	}
}

// CreateSchedule validates the request, checks EditSchedule on the
// owning entity, and reports advisory conflicts alongside the result.
func (s *ScheduleService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (Schedule, []ConflictWarning, error) {
	if s == nil {
		return Schedule{}, nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return Schedule{}, nil, fmt.Errorf("schedule repository not configured")
	}

	input := params.Input

	vErr := &ValidationError{}
	validateScheduleCore(input, vErr)
	if vErr.HasErrors() {
		return Schedule{}, nil, vErr
	}

	if err := authorize(ctx, s.hierarchy, params.Principal, scheduleEntityID(input.GroupID, input.ProjectID), authz.CapEditSchedule); err != nil {
		return Schedule{}, nil, err
	}

	createdAt := s.now()
	schedule := Schedule{
		ID:                 s.idGenerator(),
		GroupID:            input.GroupID,
		ProjectID:          input.ProjectID,
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		LocationName:       input.LocationName,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		StartsAt:           input.StartsAt,
		EndsAt:             input.EndsAt,
		LateThreshold:      input.LateThreshold,
		AttendanceDeadline: input.AttendanceDeadline,
		CreatorID:          params.Principal.UserID,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}

	warnings, err := s.detectConflicts(ctx, schedule, "")
	if err != nil {
		return Schedule{}, nil, err
	}

	persisted, err := s.schedules.CreateSchedule(ctx, schedule)
	if err != nil {
		return Schedule{}, nil, mapRepoError(err)
	}

	s.warnings.Invalidate()
	return persisted, warnings, nil
}

// UpdateSchedule applies validation and authorization before updating
// persistence state. The schedule being edited is excluded from conflict
// detection.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, params UpdateScheduleParams) (Schedule, []ConflictWarning, error) {
	if s == nil {
		return Schedule{}, nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return Schedule{}, nil, fmt.Errorf("schedule repository not configured")
	}

	existing, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return Schedule{}, nil, mapRepoError(err)
	}

	if err := authorize(ctx, s.hierarchy, params.Principal, scheduleEntityID(existing.GroupID, existing.ProjectID), authz.CapEditSchedule); err != nil {
		return Schedule{}, nil, err
	}

	input := params.Input
	vErr := &ValidationError{}
	if input.GroupID != "" && input.GroupID != existing.GroupID {
		vErr.add("group_id", "group cannot be changed")
	}
	input.GroupID = existing.GroupID
	validateScheduleCore(input, vErr)
	if vErr.HasErrors() {
		return Schedule{}, nil, vErr
	}

	updated := existing
	updated.ProjectID = input.ProjectID
	updated.Title = strings.TrimSpace(input.Title)
	updated.Description = input.Description
	updated.LocationName = input.LocationName
	updated.Latitude = input.Latitude
	updated.Longitude = input.Longitude
	updated.StartsAt = input.StartsAt
	updated.EndsAt = input.EndsAt
	updated.LateThreshold = input.LateThreshold
	updated.AttendanceDeadline = input.AttendanceDeadline
	updated.UpdatedAt = s.now()

	warnings, err := s.detectConflicts(ctx, updated, updated.ID)
	if err != nil {
		return Schedule{}, nil, err
	}

	persisted, err := s.schedules.UpdateSchedule(ctx, updated)
	if err != nil {
		return Schedule{}, nil, mapRepoError(err)
	}

	s.warnings.Invalidate()
	return persisted, warnings, nil
}

// DeleteSchedule ensures authorization before delegating to persistence.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, principal Principal, scheduleID string) error {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return fmt.Errorf("schedule repository not configured")
	}

	existing, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return mapRepoError(err)
	}

	if err := authorize(ctx, s.hierarchy, principal, scheduleEntityID(existing.GroupID, existing.ProjectID), authz.CapEditSchedule); err != nil {
		return err
	}

	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		return mapRepoError(err)
	}

	s.warnings.Invalidate()
	return nil
}

// GetSchedule returns a schedule visible to the principal.
func (s *ScheduleService) GetSchedule(ctx context.Context, principal Principal, scheduleID string) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return Schedule{}, fmt.Errorf("schedule repository not configured")
	}

	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return Schedule{}, mapRepoError(err)
	}

	if err := authorize(ctx, s.hierarchy, principal, scheduleEntityID(schedule.GroupID, schedule.ProjectID), authz.CapViewSchedule); err != nil {
		return Schedule{}, err
	}
	return schedule, nil
}

// ListSchedules enumerates a group's schedules for the requesting
// principal, with overlaps among the listed schedules as warnings.
func (s *ScheduleService) ListSchedules(ctx context.Context, params ListSchedulesParams) ([]Schedule, []ConflictWarning, error) {
	if s == nil {
		return nil, nil, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil {
		return nil, nil, fmt.Errorf("schedule repository not configured")
	}

	if params.GroupID == "" {
		vErr := &ValidationError{}
		vErr.add("group_id", "group is required")
		return nil, nil, vErr
	}

	if err := authorize(ctx, s.hierarchy, params.Principal, params.GroupID, authz.CapViewSchedule); err != nil {
		return nil, nil, err
	}

	filter := s.buildListFilter(params)

	schedules, err := s.schedules.ListSchedules(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	ordered := make([]Schedule, len(schedules))
	copy(ordered, schedules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].StartsAt.Equal(ordered[j].StartsAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].StartsAt.Before(ordered[j].StartsAt)
	})

	cacheKey := buildWarningCacheKey(filter)
	warnings, ok := s.warnings.Get(cacheKey)
	if !ok {
		warnings = detectListConflicts(ordered)
		s.warnings.Store(cacheKey, warnings)
	}

	return ordered, warnings, nil
}

// CreateRecurrence persists a rule, expands its upcoming occurrences,
// and materializes them as schedules tagged with the rule id. Conflicts
// detected while materializing are returned as warnings.
func (s *ScheduleService) CreateRecurrence(ctx context.Context, params CreateRecurrenceParams) (CreateRecurrenceResult, error) {
	if s == nil {
		return CreateRecurrenceResult{}, fmt.Errorf("ScheduleService is nil")
	}
	if s.schedules == nil || s.recurrences == nil {
		return CreateRecurrenceResult{}, fmt.Errorf("schedule repository not configured")
	}

	input := params.Input
	rule, vErr := buildEngineRule(input)
	if vErr.HasErrors() {
		return CreateRecurrenceResult{}, vErr
	}

	if err := authorize(ctx, s.hierarchy, params.Principal, scheduleEntityID(input.GroupID, input.ProjectID), authz.CapEditSchedule); err != nil {
		return CreateRecurrenceResult{}, err
	}

	horizon := params.HorizonDays
	if horizon <= 0 {
		horizon = defaultMaterializationHorizonDays
	}
	windowStart := input.StartsOn
	windowEnd := windowStart.AddDate(0, 0, horizon)

	occurrences, err := s.engine.Expand(rule, windowStart, windowEnd, materializationMaxOccurrences)
	if err != nil {
		return CreateRecurrenceResult{}, mapExpandError(err)
	}

	now := s.now()
	stored := Recurrence{
		ID:              s.idGenerator(),
		GroupID:         input.GroupID,
		ProjectID:       input.ProjectID,
		Frequency:       input.Frequency,
		Weekdays:        input.Weekdays,
		StartsOn:        input.StartsOn,
		DurationMinutes: input.DurationMinutes,
		Title:           strings.TrimSpace(input.Title),
		LocationName:    input.LocationName,
		End:             input.End,
		EndDate:         input.EndDate,
		EndCount:        input.EndCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	persisted, err := s.recurrences.CreateRecurrence(ctx, stored)
	if err != nil {
		return CreateRecurrenceResult{}, mapRepoError(err)
	}

	result := CreateRecurrenceResult{Recurrence: persisted}
	duration := rule.Duration()
	for _, occurrence := range occurrences {
		endsAt := occurrence.Add(duration)
		schedule := Schedule{
			ID:           s.idGenerator(),
			GroupID:      input.GroupID,
			ProjectID:    input.ProjectID,
			Title:        stored.Title,
			LocationName: input.LocationName,
			StartsAt:     occurrence,
			EndsAt:       &endsAt,
			RecurrenceID: &persisted.ID,
			CreatorID:    params.Principal.UserID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		warnings, err := s.detectConflicts(ctx, schedule, "")
		if err != nil {
			return CreateRecurrenceResult{}, err
		}
		result.Warnings = append(result.Warnings, warnings...)

		created, err := s.schedules.CreateSchedule(ctx, schedule)
		if err != nil {
			return CreateRecurrenceResult{}, mapRepoError(err)
		}
		result.Schedules = append(result.Schedules, created)
	}

	s.warnings.Invalidate()
	return result, nil
}

// PreviewRecurrence expands a rule within the requested window without
// persisting anything.
func (s *ScheduleService) PreviewRecurrence(ctx context.Context, params PreviewRecurrenceParams) ([]time.Time, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}

	rule, vErr := buildEngineRule(params.Input)
	if vErr.HasErrors() {
		return nil, vErr
	}

	if err := authorize(ctx, s.hierarchy, params.Principal, scheduleEntityID(params.Input.GroupID, params.Input.ProjectID), authz.CapViewSchedule); err != nil {
		return nil, err
	}

	windowStart := params.WindowStart
	if windowStart.IsZero() {
		windowStart = params.Input.StartsOn
	}
	windowEnd := params.WindowEnd
	if windowEnd.IsZero() {
		windowEnd = windowStart.AddDate(0, 0, defaultMaterializationHorizonDays)
	}
	maxCount := params.MaxCount
	if maxCount <= 0 {
		maxCount = materializationMaxOccurrences
	}

	occurrences, err := s.engine.Expand(rule, windowStart, windowEnd, maxCount)
	if err != nil {
		return nil, mapExpandError(err)
	}
	return occurrences, nil
}

// DeleteRecurrence removes a rule. Materialized schedules survive and
// can be edited individually.
func (s *ScheduleService) DeleteRecurrence(ctx context.Context, principal Principal, recurrenceID string) error {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	if s.recurrences == nil {
		return fmt.Errorf("recurrence repository not configured")
	}

	rule, err := s.recurrences.GetRecurrence(ctx, recurrenceID)
	if err != nil {
		return mapRepoError(err)
	}

	if err := authorize(ctx, s.hierarchy, principal, scheduleEntityID(rule.GroupID, rule.ProjectID), authz.CapEditSchedule); err != nil {
		return err
	}
	return mapRepoError(s.recurrences.DeleteRecurrence(ctx, recurrenceID))
}

// detectConflicts runs the detector over the candidate's group.
func (s *ScheduleService) detectConflicts(ctx context.Context, candidate Schedule, excludeID string) ([]ConflictWarning, error) {
	schedules, err := s.schedules.ListSchedules(ctx, ScheduleRepositoryFilter{GroupID: candidate.GroupID})
	if err != nil {
		return nil, err
	}

	existing := make([]scheduler.Schedule, 0, len(schedules))
	for _, sched := range schedules {
		existing = append(existing, toSchedulerSchedule(sched))
	}

	conflicts := scheduler.FindConflicts(existing, scheduler.Candidate{
		Start: candidate.StartsAt,
		End:   candidate.EndsAt,
	}, excludeID)
	return toConflictWarnings(conflicts), nil
}

func toSchedulerSchedule(schedule Schedule) scheduler.Schedule {
	return scheduler.Schedule{
		ID:      schedule.ID,
		GroupID: schedule.GroupID,
		Title:   schedule.Title,
		Start:   schedule.StartsAt,
		End:     schedule.EndsAt,
	}
}

func toConflictWarnings(conflicts []scheduler.Conflict) []ConflictWarning {
	if len(conflicts) == 0 {
		return nil
	}

	warnings := make([]ConflictWarning, 0, len(conflicts))
	for _, conflict := range conflicts {
		warnings = append(warnings, ConflictWarning{
			ScheduleID: conflict.WithScheduleID,
			Title:      conflict.Title,
			Start:      conflict.Start,
			End:        conflict.End,
		})
	}
	return warnings
}

// detectListConflicts reports overlaps among an ordered listing.
func detectListConflicts(schedules []Schedule) []ConflictWarning {
	if len(schedules) <= 1 {
		return nil
	}

	converted := make([]scheduler.Schedule, len(schedules))
	for i, sched := range schedules {
		converted[i] = toSchedulerSchedule(sched)
	}

	warnings := make([]ConflictWarning, 0)
	for i, candidate := range schedules {
		if i+1 >= len(schedules) {
			break
		}
		conflicts := scheduler.FindConflicts(converted[i+1:], scheduler.Candidate{
			Start: candidate.StartsAt,
			End:   candidate.EndsAt,
		}, candidate.ID)
		warnings = append(warnings, toConflictWarnings(conflicts)...)
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}

func validateScheduleCore(input ScheduleInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}

	if input.GroupID == "" {
		vErr.add("group_id", "group is required")
	}

	if input.StartsAt.IsZero() {
		vErr.add("starts_at", "start is required")
	} else if !isKoreaStandardTime(input.StartsAt) {
		vErr.add("starts_at", "start must be in Asia/Seoul (KST)")
	}

	if input.EndsAt != nil {
		if !isKoreaStandardTime(*input.EndsAt) {
			vErr.add("ends_at", "end must be in Asia/Seoul (KST)")
		} else if !input.StartsAt.IsZero() && !input.StartsAt.Before(*input.EndsAt) {
			vErr.add("time", "start must be before end")
		}
	}

	if (input.Latitude == nil) != (input.Longitude == nil) {
		vErr.add("location", "latitude and longitude must be set together")
	}
	if input.Latitude != nil && input.Longitude != nil {
		if *input.Latitude < -90 || *input.Latitude > 90 || *input.Longitude < -180 || *input.Longitude > 180 {
			vErr.add("location", "coordinates are out of range")
		}
	}
}

func buildEngineRule(input RecurrenceInput) (recurrence.Rule, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.GroupID == "" {
		vErr.add("group_id", "group is required")
	}
	if input.StartsOn.IsZero() {
		vErr.add("starts_on", "anchor date is required")
	} else if !isKoreaStandardTime(input.StartsOn) {
		vErr.add("starts_on", "anchor must be in Asia/Seoul (KST)")
	}
	if input.DurationMinutes < 0 {
		vErr.add("duration_minutes", "duration must not be negative")
	}
	for _, day := range input.Weekdays {
		if day < time.Sunday || day > time.Saturday {
			vErr.add("weekdays", "weekdays must be between 0 (Sunday) and 6 (Saturday)")
			break
		}
	}

	var frequency recurrence.Frequency
	switch input.Frequency {
	case "daily":
		frequency = recurrence.FrequencyDaily
	case "weekly":
		frequency = recurrence.FrequencyWeekly
		if len(input.Weekdays) == 0 {
			vErr.add("weekdays", "weekly rules require at least one weekday")
		}
	case "monthly":
		frequency = recurrence.FrequencyMonthly
	default:
		vErr.add("frequency", "frequency must be daily, weekly, or monthly")
	}

	end := recurrence.EndCondition{}
	switch input.End {
	case "", "never":
		end.Kind = recurrence.EndNever
	case "on_date":
		end.Kind = recurrence.EndOnDate
		if input.EndDate == nil {
			vErr.add("end_date", "end date is required")
		} else {
			end.Date = *input.EndDate
		}
	case "after_count":
		end.Kind = recurrence.EndAfterCount
		if input.EndCount == nil || *input.EndCount <= 0 {
			vErr.add("end_count", "end count must be positive")
		} else {
			end.Count = *input.EndCount
		}
	default:
		vErr.add("end", "end must be never, on_date, or after_count")
	}

	if vErr.HasErrors() {
		return recurrence.Rule{}, vErr
	}

	locationName := ""
	if input.LocationName != nil {
		locationName = *input.LocationName
	}

	return recurrence.Rule{
		GroupID:         input.GroupID,
		ProjectID:       input.ProjectID,
		Frequency:       frequency,
		Weekdays:        input.Weekdays,
		StartTime:       input.StartsOn,
		DurationMinutes: input.DurationMinutes,
		Title:           strings.TrimSpace(input.Title),
		LocationName:    locationName,
		Anchor:          input.StartsOn,
		End:             end,
	}, vErr
}

func mapExpandError(err error) error {
	switch err {
	case nil:
		return nil
	case recurrence.ErrEmptyWeekdays:
		vErr := &ValidationError{}
		vErr.add("weekdays", "weekly rules require at least one weekday")
		return vErr
	case recurrence.ErrInvalidFrequency:
		vErr := &ValidationError{}
		vErr.add("frequency", "frequency must be daily, weekly, or monthly")
		return vErr
	case recurrence.ErrInvalidWindow:
		vErr := &ValidationError{}
		vErr.add("window", "expansion window requires an end bound")
		return vErr
	default:
		return err
	}
}

// scheduleEntityID picks the entity permissions are resolved against: the
// project when set, else the owning group.
func scheduleEntityID(groupID string, projectID *string) string {
	if projectID != nil && *projectID != "" {
		return *projectID
	}
	return groupID
}

func (s *ScheduleService) buildListFilter(params ListSchedulesParams) ScheduleRepositoryFilter {
	startsAfter := params.StartsAfter
	endsBefore := params.EndsBefore

	if params.Period != ListPeriodNone {
		start, end := computePeriodRange(params.Period, params.PeriodReference)
		if startsAfter == nil {
			startsAfter = &start
		}
		if endsBefore == nil {
			endsBefore = &end
		}
	}

	return ScheduleRepositoryFilter{
		GroupID:     params.GroupID,
		ProjectID:   params.ProjectID,
		StartsAfter: startsAfter,
		EndsBefore:  endsBefore,
	}
}

func computePeriodRange(period ListPeriod, reference time.Time) (time.Time, time.Time) {
	switch period {
	case ListPeriodDay:
		start := startOfDay(reference)
		return start, start.AddDate(0, 0, 1)
	case ListPeriodWeek:
		start := startOfWeek(reference)
		return start, start.AddDate(0, 0, 7)
	case ListPeriodMonth:
		start := startOfMonth(reference)
		return start, start.AddDate(0, 1, 0)
	default:
		return time.Time{}, time.Time{}
	}
}

func startOfDay(t time.Time) time.Time {
	loc := kstLocation()
	inKST := t.In(loc)
	return time.Date(inKST.Year(), inKST.Month(), inKST.Day(), 0, 0, 0, 0, loc)
}

func startOfWeek(t time.Time) time.Time {
	start := startOfDay(t)
	weekday := int(start.Weekday())
	// Adjust so Monday is start of week. In Go, Monday == 1, Sunday == 0.
	offset := (weekday + 6) % 7
	return start.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	start := startOfDay(t)
	return time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
}

func kstLocation() *time.Location {
	return time.FixedZone("KST", 9*60*60)
}

// isKoreaStandardTime reports whether the instant carries the UTC+9
// offset. RFC3339 input cannot carry a zone name, so only the offset
// is checked.
func isKoreaStandardTime(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	_, offset := t.Zone()
	return offset == 9*60*60
}
