package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/dance-group-manager/internal/application"
)

type scheduleService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (application.Schedule, []application.ConflictWarning, error)
	UpdateSchedule(ctx context.Context, params application.UpdateScheduleParams) (application.Schedule, []application.ConflictWarning, error)
	DeleteSchedule(ctx context.Context, principal application.Principal, scheduleID string) error
	GetSchedule(ctx context.Context, principal application.Principal, scheduleID string) (application.Schedule, error)
	ListSchedules(ctx context.Context, params application.ListSchedulesParams) ([]application.Schedule, []application.ConflictWarning, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, warnings, err := h.service.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, warnings, http.StatusCreated)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	schedule, err := h.service.GetSchedule(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, nil, http.StatusOK)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, warnings, err := h.service.UpdateSchedule(r.Context(), application.UpdateScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderSchedule(r.Context(), w, schedule, warnings, http.StatusOK)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteSchedule(r.Context(), principal, scheduleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := buildListParams(r.URL.Query(), principal)

	schedules, warnings, err := h.service.ListSchedules(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := listSchedulesResponse{
		Schedules: toScheduleDTOs(schedules),
		Warnings:  toWarningDTOs(warnings),
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

func (h *ScheduleHandler) renderSchedule(ctx context.Context, w http.ResponseWriter, schedule application.Schedule, warnings []application.ConflictWarning, status int) {
	payload := scheduleResponse{
		Schedule: toScheduleDTO(schedule),
		Warnings: toWarningDTOs(warnings),
	}
	h.responder.writeJSON(ctx, w, status, payload)
}

type scheduleRequest struct {
	GroupID            string   `json:"group_id"`
	ProjectID          *string  `json:"project_id"`
	Title              string   `json:"title"`
	Description        *string  `json:"description"`
	LocationName       *string  `json:"location_name"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	StartsAt           string   `json:"starts_at"`
	EndsAt             string   `json:"ends_at"`
	LateThreshold      string   `json:"late_threshold"`
	AttendanceDeadline string   `json:"attendance_deadline"`
}

func (r scheduleRequest) toInput() application.ScheduleInput {
	return application.ScheduleInput{
		GroupID:            strings.TrimSpace(r.GroupID),
		ProjectID:          r.ProjectID,
		Title:              strings.TrimSpace(r.Title),
		Description:        r.Description,
		LocationName:       r.LocationName,
		Latitude:           r.Latitude,
		Longitude:          r.Longitude,
		StartsAt:           parseTime(r.StartsAt),
		EndsAt:             parseTimePtr(r.EndsAt),
		LateThreshold:      parseTimePtr(r.LateThreshold),
		AttendanceDeadline: parseTimePtr(r.AttendanceDeadline),
	}
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func parseTimePtr(value string) *time.Time {
	ts := parseTime(value)
	if ts.IsZero() {
		return nil
	}
	return &ts
}

type scheduleResponse struct {
	Schedule scheduleDTO          `json:"schedule"`
	Warnings []conflictWarningDTO `json:"warnings,omitempty"`
}

type listSchedulesResponse struct {
	Schedules []scheduleDTO        `json:"schedules"`
	Warnings  []conflictWarningDTO `json:"warnings,omitempty"`
}

type scheduleDTO struct {
	ID                 string   `json:"id"`
	GroupID            string   `json:"group_id"`
	ProjectID          *string  `json:"project_id,omitempty"`
	Title              string   `json:"title"`
	Description        *string  `json:"description,omitempty"`
	LocationName       *string  `json:"location_name,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	StartsAt           string   `json:"starts_at"`
	EndsAt             string   `json:"ends_at,omitempty"`
	LateThreshold      string   `json:"late_threshold,omitempty"`
	AttendanceDeadline string   `json:"attendance_deadline,omitempty"`
	RecurrenceID       *string  `json:"recurrence_id,omitempty"`
	CreatorID          string   `json:"creator_id"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

func toScheduleDTO(schedule application.Schedule) scheduleDTO {
	return scheduleDTO{
		ID:                 schedule.ID,
		GroupID:            schedule.GroupID,
		ProjectID:          schedule.ProjectID,
		Title:              schedule.Title,
		Description:        schedule.Description,
		LocationName:       schedule.LocationName,
		Latitude:           schedule.Latitude,
		Longitude:          schedule.Longitude,
		StartsAt:           schedule.StartsAt.Format(time.RFC3339Nano),
		EndsAt:             formatTimePtr(schedule.EndsAt),
		LateThreshold:      formatTimePtr(schedule.LateThreshold),
		AttendanceDeadline: formatTimePtr(schedule.AttendanceDeadline),
		RecurrenceID:       schedule.RecurrenceID,
		CreatorID:          schedule.CreatorID,
		CreatedAt:          schedule.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:          schedule.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format(time.RFC3339Nano)
}

func toScheduleDTOs(schedules []application.Schedule) []scheduleDTO {
	if len(schedules) == 0 {
		return nil
	}
	out := make([]scheduleDTO, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, toScheduleDTO(schedule))
	}
	return out
}

type conflictWarningDTO struct {
	ScheduleID string `json:"schedule_id"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}

	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			ScheduleID: warning.ScheduleID,
			Title:      warning.Title,
			Start:      warning.Start.Format(time.RFC3339Nano),
			End:        warning.End.Format(time.RFC3339Nano),
		})
	}
	return out
}

func buildListParams(values url.Values, principal application.Principal) application.ListSchedulesParams {
	params := application.ListSchedulesParams{Principal: principal}

	params.GroupID = strings.TrimSpace(values.Get("group_id"))
	if projectID := strings.TrimSpace(values.Get("project_id")); projectID != "" {
		params.ProjectID = &projectID
	}

	if after := strings.TrimSpace(values.Get("starts_after")); after != "" {
		if ts := parseTime(after); !ts.IsZero() {
			params.StartsAfter = &ts
		}
	}
	if before := strings.TrimSpace(values.Get("ends_before")); before != "" {
		if ts := parseTime(before); !ts.IsZero() {
			params.EndsBefore = &ts
		}
	}

	kst := time.FixedZone("KST", 9*60*60)
	if day := strings.TrimSpace(values.Get("day")); day != "" {
		if ts, err := time.ParseInLocation("2006-01-02", day, kst); err == nil {
			params.Period = application.ListPeriodDay
			params.PeriodReference = ts
		}
	} else if week := strings.TrimSpace(values.Get("week")); week != "" {
		if ts, err := time.ParseInLocation("2006-01-02", week, kst); err == nil {
			params.Period = application.ListPeriodWeek
			params.PeriodReference = ts
		}
	} else if month := strings.TrimSpace(values.Get("month")); month != "" {
		if ts, err := time.ParseInLocation("2006-01", month, kst); err == nil {
			params.Period = application.ListPeriodMonth
			params.PeriodReference = ts
		}
	}

	return params
}
