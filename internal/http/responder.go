package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/dance-group-manager/internal/application"
	"github.com/example/dance-group-manager/internal/attendance"
)

var (
	errBadRequestBody      = errors.New("요청 형식이 올바르지 않습니다.")
	errInvalidScheduleID   = errors.New("유효하지 않은 일정 ID입니다.")
	errInvalidGroupID      = errors.New("유효하지 않은 그룹 ID입니다.")
	errInvalidUserID       = errors.New("유효하지 않은 사용자 ID입니다.")
	errInvalidRecurrenceID = errors.New("유효하지 않은 반복 규칙 ID입니다.")
	errMissingSessionToken = errors.New("인증 토큰을 입력해 주세요.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "이 작업을 수행할 권한이 없습니다.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "요청한 리소스를 찾을 수 없습니다."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "이미 존재하는 리소스입니다."})
	case errors.Is(err, application.ErrAccountDisabled):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_ACCOUNT_DISABLED",
			Message:   "비활성화된 계정입니다.",
		})
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ATTENDANCE_DUPLICATE",
			Message:   "이미 출석 체크를 완료했습니다.",
		})
	case errors.Is(err, attendance.ErrWindowClosed):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "ATTENDANCE_WINDOW_CLOSED",
			Message:   "출석 체크 가능 시간이 아닙니다.",
		})
	case errors.Is(err, attendance.ErrLocationRequired):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "ATTENDANCE_LOCATION_REQUIRED",
			Message:   "이 일정은 위치 정보가 필요합니다.",
		})
	case errors.Is(err, attendance.ErrOutOfRange):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "ATTENDANCE_OUT_OF_RANGE",
			Message:   "연습 장소에서 너무 멀리 떨어져 있습니다.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			details := localizeValidationErrors(vErr)
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "입력 내용에 오류가 있습니다.",
				Errors:  details,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "서버 내부 오류가 발생했습니다."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "요청 내용이 올바르지 않습니다."
	case http.StatusUnauthorized:
		return "로그인이 필요합니다."
	case http.StatusForbidden:
		return "이 작업을 수행할 권한이 없습니다."
	case http.StatusNotFound:
		return "요청한 리소스를 찾을 수 없습니다."
	case http.StatusConflict:
		return "요청이 리소스의 현재 상태와 충돌합니다."
	case http.StatusUnprocessableEntity:
		return "입력 내용에 오류가 있습니다."
	default:
		return "서버 내부 오류가 발생했습니다."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "email is required":
		return "이메일은 필수입니다."
	case "email is invalid":
		return "이메일 형식이 올바르지 않습니다."
	case "display name is required":
		return "표시 이름은 필수입니다."
	case "password must be at least 8 characters":
		return "비밀번호는 8자 이상이어야 합니다."
	case "name is required":
		return "이름은 필수입니다."
	case "title is required":
		return "제목은 필수입니다."
	case "group is required":
		return "그룹은 필수입니다."
	case "group cannot be changed":
		return "일정의 그룹은 변경할 수 없습니다."
	case "start is required":
		return "시작 일시는 필수입니다."
	case "start must be in Asia/Seoul (KST)":
		return "시작 일시는 한국 표준시로 지정해 주세요."
	case "end must be in Asia/Seoul (KST)":
		return "종료 일시는 한국 표준시로 지정해 주세요."
	case "start must be before end":
		return "종료 일시는 시작 일시보다 뒤여야 합니다."
	case "latitude and longitude must be set together":
		return "위도와 경도는 함께 지정해야 합니다."
	case "coordinates are out of range":
		return "좌표 값이 범위를 벗어났습니다."
	case "weekly rules require at least one weekday":
		return "매주 반복에는 요일을 하나 이상 지정해야 합니다."
	case "frequency must be daily, weekly, or monthly":
		return "반복 주기는 daily, weekly, monthly 중 하나여야 합니다."
	case "end must be never, on_date, or after_count":
		return "종료 조건은 never, on_date, after_count 중 하나여야 합니다."
	case "end date is required":
		return "종료 날짜는 필수입니다."
	case "end count must be positive":
		return "반복 횟수는 양수여야 합니다."
	case "anchor date is required":
		return "기준 날짜는 필수입니다."
	case "anchor must be in Asia/Seoul (KST)":
		return "기준 날짜는 한국 표준시로 지정해 주세요."
	case "duration must not be negative":
		return "지속 시간은 음수일 수 없습니다."
	case "expansion window requires an end bound":
		return "반복 전개 범위에는 종료 시점이 필요합니다."
	case "user is required":
		return "사용자는 필수입니다."
	case "entity is required":
		return "대상 그룹 또는 프로젝트는 필수입니다."
	case "role must be leader, sub_leader, or member":
		return "역할은 leader, sub_leader, member 중 하나여야 합니다."
	case "related records are missing":
		return "참조된 데이터가 존재하지 않습니다."
	case "input violates a storage constraint":
		return "저장소 제약 조건을 위반했습니다."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
