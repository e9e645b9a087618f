package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/dance-group-manager/internal/application"
)

type recurrenceService interface {
	CreateRecurrence(ctx context.Context, params application.CreateRecurrenceParams) (application.CreateRecurrenceResult, error)
	PreviewRecurrence(ctx context.Context, params application.PreviewRecurrenceParams) ([]time.Time, error)
	DeleteRecurrence(ctx context.Context, principal application.Principal, recurrenceID string) error
}

type RecurrenceHandler struct {
	service   recurrenceService
	responder responder
}

func NewRecurrenceHandler(service recurrenceService, logger *slog.Logger) *RecurrenceHandler {
	return &RecurrenceHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *RecurrenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req recurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.CreateRecurrence(r.Context(), application.CreateRecurrenceParams{
		Principal:   principal,
		Input:       req.toInput(),
		HorizonDays: req.HorizonDays,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, recurrenceResponse{
		Recurrence: toRecurrenceDTO(result.Recurrence),
		Schedules:  toScheduleDTOs(result.Schedules),
		Warnings:   toWarningDTOs(result.Warnings),
	})
}

func (h *RecurrenceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	occurrences, err := h.service.PreviewRecurrence(r.Context(), application.PreviewRecurrenceParams{
		Principal:   principal,
		Input:       req.Rule.toInput(),
		WindowStart: parseTime(req.WindowStart),
		WindowEnd:   parseTime(req.WindowEnd),
		MaxCount:    req.MaxCount,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]string, 0, len(occurrences))
	for _, occurrence := range occurrences {
		out = append(out, occurrence.Format(time.RFC3339Nano))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, previewResponse{Occurrences: out})
}

func (h *RecurrenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	recurrenceID, ok := RecurrenceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(recurrenceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRecurrenceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteRecurrence(r.Context(), principal, recurrenceID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type recurrenceRequest struct {
	GroupID         string  `json:"group_id"`
	ProjectID       *string `json:"project_id"`
	Title           string  `json:"title"`
	LocationName    *string `json:"location_name"`
	Frequency       string  `json:"frequency"`
	Weekdays        []int   `json:"weekdays"`
	StartsOn        string  `json:"starts_on"`
	DurationMinutes int     `json:"duration_minutes"`
	End             string  `json:"end"`
	EndDate         string  `json:"end_date"`
	EndCount        *int    `json:"end_count"`
	HorizonDays     int     `json:"horizon_days"`
}

func (r recurrenceRequest) toInput() application.RecurrenceInput {
	weekdays := make([]time.Weekday, 0, len(r.Weekdays))
	for _, day := range r.Weekdays {
		weekdays = append(weekdays, time.Weekday(day))
	}
	if len(weekdays) == 0 {
		weekdays = nil
	}

	return application.RecurrenceInput{
		GroupID:         strings.TrimSpace(r.GroupID),
		ProjectID:       r.ProjectID,
		Title:           strings.TrimSpace(r.Title),
		LocationName:    r.LocationName,
		Frequency:       strings.TrimSpace(r.Frequency),
		Weekdays:        weekdays,
		StartsOn:        parseTime(r.StartsOn),
		DurationMinutes: r.DurationMinutes,
		End:             strings.TrimSpace(r.End),
		EndDate:         parseTimePtr(r.EndDate),
		EndCount:        r.EndCount,
	}
}

type previewRequest struct {
	Rule        recurrenceRequest `json:"rule"`
	WindowStart string            `json:"window_start"`
	WindowEnd   string            `json:"window_end"`
	MaxCount    int               `json:"max_count"`
}

type previewResponse struct {
	Occurrences []string `json:"occurrences"`
}

type recurrenceResponse struct {
	Recurrence recurrenceDTO        `json:"recurrence"`
	Schedules  []scheduleDTO        `json:"schedules,omitempty"`
	Warnings   []conflictWarningDTO `json:"warnings,omitempty"`
}

type recurrenceDTO struct {
	ID              string  `json:"id"`
	GroupID         string  `json:"group_id"`
	ProjectID       *string `json:"project_id,omitempty"`
	Title           string  `json:"title"`
	LocationName    *string `json:"location_name,omitempty"`
	Frequency       string  `json:"frequency"`
	Weekdays        []int   `json:"weekdays,omitempty"`
	StartsOn        string  `json:"starts_on"`
	DurationMinutes int     `json:"duration_minutes"`
	End             string  `json:"end"`
	EndDate         string  `json:"end_date,omitempty"`
	EndCount        *int    `json:"end_count,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toRecurrenceDTO(rule application.Recurrence) recurrenceDTO {
	weekdays := make([]int, 0, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		weekdays = append(weekdays, int(day))
	}
	if len(weekdays) == 0 {
		weekdays = nil
	}

	return recurrenceDTO{
		ID:              rule.ID,
		GroupID:         rule.GroupID,
		ProjectID:       rule.ProjectID,
		Title:           rule.Title,
		LocationName:    rule.LocationName,
		Frequency:       rule.Frequency,
		Weekdays:        weekdays,
		StartsOn:        rule.StartsOn.Format(time.RFC3339Nano),
		DurationMinutes: rule.DurationMinutes,
		End:             rule.End,
		EndDate:         formatTimePtr(rule.EndDate),
		EndCount:        rule.EndCount,
		CreatedAt:       rule.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       rule.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
