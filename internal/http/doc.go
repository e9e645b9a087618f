// Package http provides HTTP handlers and middleware for the dance group
// manager API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204 and
//     clears the cookie.
//   - GET /groups, POST /groups, GET|PUT|DELETE /groups/{id}: group tree
//     management. Sub-resources: GET|POST /groups/{id}/projects,
//     GET|PUT /groups/{id}/memberships, DELETE /groups/{id}/memberships/{userID},
//     GET /groups/{id}/permissions (the caller's resolved role and
//     capabilities).
//   - GET /schedules, POST /schedules, GET|PUT|DELETE /schedules/{id}:
//     schedule management exchanging the `scheduleDTO` payload defined in
//     schedule_handler.go. Create and update responses include advisory
//     conflict warnings. Sub-resources: POST /schedules/{id}/check-ins,
//     GET /schedules/{id}/attendance, GET /schedules/{id}/window.
//   - POST /recurrences: creates a recurrence rule and materializes its
//     upcoming occurrences. POST /recurrences/preview expands a rule
//     without persisting. DELETE /recurrences/{id} removes a rule.
//   - GET /users, POST /users, GET|PUT|DELETE /users/{id}: administrator
//     controlled user management.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
