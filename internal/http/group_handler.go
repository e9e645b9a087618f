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

type groupService interface {
	CreateGroup(ctx context.Context, principal application.Principal, input application.GroupInput) (application.Group, error)
	UpdateGroup(ctx context.Context, principal application.Principal, groupID string, input application.GroupInput) (application.Group, error)
	GetGroup(ctx context.Context, principal application.Principal, groupID string) (application.Group, error)
	ListGroups(ctx context.Context, principal application.Principal) ([]application.Group, error)
	DeleteGroup(ctx context.Context, principal application.Principal, groupID string) error

	CreateProject(ctx context.Context, principal application.Principal, input application.ProjectInput) (application.Project, error)
	DeleteProject(ctx context.Context, principal application.Principal, projectID string) error
	ListProjects(ctx context.Context, principal application.Principal, groupID string) ([]application.Project, error)

	PutMembership(ctx context.Context, principal application.Principal, membership application.Membership) error
	DeleteMembership(ctx context.Context, principal application.Principal, userID, entityID string) error
	ListMemberships(ctx context.Context, principal application.Principal, entityID string) ([]application.Membership, error)

	ResolvePermissions(ctx context.Context, principal application.Principal, entityID string) (application.PermissionSet, error)
}

type GroupHandler struct {
	service   groupService
	responder responder
}

func NewGroupHandler(service groupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	group, err := h.service.CreateGroup(r.Context(), principal, application.GroupInput{
		Name:          strings.TrimSpace(req.Name),
		ParentGroupID: req.ParentGroupID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toGroupDTO(group))
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	group, err := h.service.GetGroup(r.Context(), principal, groupID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGroupDTO(group))
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	group, err := h.service.UpdateGroup(r.Context(), principal, groupID, application.GroupInput{
		Name:          strings.TrimSpace(req.Name),
		ParentGroupID: req.ParentGroupID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGroupDTO(group))
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteGroup(r.Context(), principal, groupID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	groups, err := h.service.ListGroups(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]groupDTO, 0, len(groups))
	for _, group := range groups {
		out = append(out, toGroupDTO(group))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listGroupsResponse{Groups: out})
}

func (h *GroupHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	project, err := h.service.CreateProject(r.Context(), principal, application.ProjectInput{
		GroupID: groupID,
		Name:    strings.TrimSpace(req.Name),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toProjectDTO(project))
}

func (h *GroupHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	projects, err := h.service.ListProjects(r.Context(), principal, groupID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]projectDTO, 0, len(projects))
	for _, project := range projects {
		out = append(out, toProjectDTO(project))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listProjectsResponse{Projects: out})
}

func (h *GroupHandler) DeleteProject(w http.ResponseWriter, r *http.Request, projectID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteProject(r.Context(), principal, projectID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *GroupHandler) PutMembership(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	var req membershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	err := h.service.PutMembership(r.Context(), principal, application.Membership{
		UserID:   strings.TrimSpace(req.UserID),
		EntityID: groupID,
		Role:     strings.TrimSpace(req.Role),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *GroupHandler) DeleteMembership(w http.ResponseWriter, r *http.Request, userID string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}
	if strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteMembership(r.Context(), principal, userID, groupID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *GroupHandler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	memberships, err := h.service.ListMemberships(r.Context(), principal, groupID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]membershipDTO, 0, len(memberships))
	for _, membership := range memberships {
		out = append(out, membershipDTO{
			UserID:   membership.UserID,
			EntityID: membership.EntityID,
			Role:     membership.Role,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMembershipsResponse{Memberships: out})
}

func (h *GroupHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	groupID, ok := GroupIDFromContext(r.Context())
	if !ok || strings.TrimSpace(groupID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidGroupID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	perms, err := h.service.ResolvePermissions(r.Context(), principal, groupID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, permissionsDTO{
		Role:         perms.Role,
		Capabilities: perms.Capabilities,
	})
}

type groupRequest struct {
	Name          string  `json:"name"`
	ParentGroupID *string `json:"parent_group_id"`
}

type groupDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ParentGroupID *string `json:"parent_group_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type listGroupsResponse struct {
	Groups []groupDTO `json:"groups"`
}

func toGroupDTO(group application.Group) groupDTO {
	return groupDTO{
		ID:            group.ID,
		Name:          group.Name,
		ParentGroupID: group.ParentGroupID,
		CreatedAt:     group.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     group.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type projectRequest struct {
	Name string `json:"name"`
}

type projectDTO struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listProjectsResponse struct {
	Projects []projectDTO `json:"projects"`
}

func toProjectDTO(project application.Project) projectDTO {
	return projectDTO{
		ID:        project.ID,
		GroupID:   project.GroupID,
		Name:      project.Name,
		CreatedAt: project.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: project.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type membershipRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type membershipDTO struct {
	UserID   string `json:"user_id"`
	EntityID string `json:"entity_id"`
	Role     string `json:"role"`
}

type listMembershipsResponse struct {
	Memberships []membershipDTO `json:"memberships"`
}

type permissionsDTO struct {
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}
