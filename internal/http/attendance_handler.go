package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/dance-group-manager/internal/application"
	"github.com/example/dance-group-manager/internal/attendance"
)

type attendanceService interface {
	CheckIn(ctx context.Context, params application.CheckInParams) (application.AttendanceRecord, error)
	ListAttendance(ctx context.Context, principal application.Principal, scheduleID string) ([]application.AttendanceRecord, error)
	GetOwnAttendance(ctx context.Context, principal application.Principal, scheduleID string) (application.AttendanceRecord, error)
	WindowFor(ctx context.Context, principal application.Principal, scheduleID string) (time.Time, time.Time, attendance.WindowState, error)
}

type AttendanceHandler struct {
	service   attendanceService
	responder responder
}

func NewAttendanceHandler(service attendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req checkInRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}

	principal, _ := PrincipalFromContext(r.Context())
	record, err := h.service.CheckIn(r.Context(), application.CheckInParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toAttendanceDTO(record))
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
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

	// ?mine=true returns only the caller's own record.
	if strings.EqualFold(r.URL.Query().Get("mine"), "true") {
		record, err := h.service.GetOwnAttendance(r.Context(), principal, scheduleID)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		h.responder.writeJSON(r.Context(), w, http.StatusOK, listAttendanceResponse{
			Records: []attendanceDTO{toAttendanceDTO(record)},
		})
		return
	}

	records, err := h.service.ListAttendance(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]attendanceDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toAttendanceDTO(record))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAttendanceResponse{Records: out})
}

func (h *AttendanceHandler) Window(w http.ResponseWriter, r *http.Request) {
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
	opensAt, deadline, state, err := h.service.WindowFor(r.Context(), principal, scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, windowDTO{
		OpensAt:  opensAt.Format(time.RFC3339Nano),
		Deadline: deadline.Format(time.RFC3339Nano),
		State:    string(state),
	})
}

type checkInRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type attendanceDTO struct {
	ID         string   `json:"id"`
	ScheduleID string   `json:"schedule_id"`
	UserID     string   `json:"user_id"`
	Status     string   `json:"status"`
	CheckedAt  string   `json:"checked_at"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

type listAttendanceResponse struct {
	Records []attendanceDTO `json:"records"`
}

type windowDTO struct {
	OpensAt  string `json:"opens_at"`
	Deadline string `json:"deadline"`
	State    string `json:"state"`
}

func toAttendanceDTO(record application.AttendanceRecord) attendanceDTO {
	return attendanceDTO{
		ID:         record.ID,
		ScheduleID: record.ScheduleID,
		UserID:     record.UserID,
		Status:     record.Status,
		CheckedAt:  record.CheckedAt.Format(time.RFC3339Nano),
		Latitude:   record.Latitude,
		Longitude:  record.Longitude,
	}
}
