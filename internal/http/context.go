package http

import (
	"context"

	"github.com/example/dance-group-manager/internal/application"
)

type contextKey string

const (
	principalContextKey    contextKey = "principal"
	scheduleIDContextKey   contextKey = "schedule_id"
	groupIDContextKey      contextKey = "group_id"
	userIDContextKey       contextKey = "user_id"
	recurrenceIDContextKey contextKey = "recurrence_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithScheduleID injects the schedule identifier resolved from the request path.
func ContextWithScheduleID(ctx context.Context, scheduleID string) context.Context {
	return context.WithValue(ctx, scheduleIDContextKey, scheduleID)
}

// ScheduleIDFromContext extracts a schedule identifier previously associated with the context.
func ScheduleIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(scheduleIDContextKey).(string)
	return id, ok
}

// ContextWithGroupID injects the group identifier resolved from the request path.
func ContextWithGroupID(ctx context.Context, groupID string) context.Context {
	return context.WithValue(ctx, groupIDContextKey, groupID)
}

// GroupIDFromContext extracts a group identifier previously associated with the context.
func GroupIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(groupIDContextKey).(string)
	return id, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}

// ContextWithRecurrenceID injects the recurrence rule identifier resolved from the request path.
func ContextWithRecurrenceID(ctx context.Context, recurrenceID string) context.Context {
	return context.WithValue(ctx, recurrenceIDContextKey, recurrenceID)
}

// RecurrenceIDFromContext extracts a recurrence rule identifier previously associated with the context.
func RecurrenceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(recurrenceIDContextKey).(string)
	return id, ok
}
