package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/dance-group-manager/internal/authz"
	"github.com/example/dance-group-manager/internal/persistence"
)

// GroupRepository captures the persistence interactions for the entity
// hierarchy: groups, projects, and memberships.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group Group) (Group, error)
	UpdateGroup(ctx context.Context, group Group) (Group, error)
	GetGroup(ctx context.Context, id string) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	DeleteGroup(ctx context.Context, id string) error

	CreateProject(ctx context.Context, project Project) (Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error

	PutMembership(ctx context.Context, membership Membership) error
	DeleteMembership(ctx context.Context, userID, entityID string) error
	ListMemberships(ctx context.Context) ([]Membership, error)
	ListMembershipsForEntity(ctx context.Context, entityID string) ([]Membership, error)
}

// GroupService orchestrates the group/project tree and memberships, and
// assembles the hierarchy snapshot handed to the permission resolver.
type GroupService struct {
	groups      GroupRepository
	idGenerator func() string
	now         func() time.Time
}

// NewGroupService wires dependencies for group operations.
func NewGroupService(groups GroupRepository, idGenerator func() string, now func() time.Time) *GroupService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &GroupService{groups: groups, idGenerator: idGenerator, now: now}
}

// Hierarchy builds a permission-resolution snapshot from the current
// groups, projects, and memberships. The snapshot is rebuilt per call so
// membership changes take effect immediately.
func (s *GroupService) Hierarchy(ctx context.Context) (*authz.Hierarchy, error) {
	if s == nil || s.groups == nil {
		return nil, fmt.Errorf("group repository not configured")
	}

	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.groups.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	memberships, err := s.groups.ListMemberships(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make([]authz.Node, 0, len(groups)+len(projects))
	for _, group := range groups {
		nodes = append(nodes, authz.Node{
			ID:       group.ID,
			Kind:     authz.EntityGroup,
			ParentID: group.ParentGroupID,
		})
	}
	for _, project := range projects {
		groupID := project.GroupID
		nodes = append(nodes, authz.Node{
			ID:       project.ID,
			Kind:     authz.EntityProject,
			ParentID: &groupID,
		})
	}

	assignments := make([]authz.Membership, 0, len(memberships))
	for _, m := range memberships {
		assignments = append(assignments, authz.Membership{
			UserID:   m.UserID,
			EntityID: m.EntityID,
			Role:     authz.ParseRole(m.Role),
		})
	}

	return authz.NewHierarchy(nodes, assignments), nil
}

// ResolvePermissions returns the principal's effective role and
// capabilities on an entity.
func (s *GroupService) ResolvePermissions(ctx context.Context, principal Principal, entityID string) (PermissionSet, error) {
	if s == nil {
		return PermissionSet{}, fmt.Errorf("GroupService is nil")
	}

	hierarchy, err := s.Hierarchy(ctx)
	if err != nil {
		return PermissionSet{}, err
	}

	resolution, err := hierarchy.Resolve(principal.UserID, entityID)
	if err != nil {
		if errors.Is(err, authz.ErrEntityNotFound) {
			return PermissionSet{}, ErrNotFound
		}
		return PermissionSet{}, err
	}

	capabilities := make([]string, 0, len(resolution.Capabilities))
	for _, capability := range resolution.Capabilities {
		capabilities = append(capabilities, string(capability))
	}
	return PermissionSet{Role: resolution.Role.String(), Capabilities: capabilities}, nil
}

// CreateGroup creates a root group or a sub-group. Creating a root group
// is open to any authenticated user, who becomes its leader; creating a
// sub-group requires ManageSettings on the parent.
func (s *GroupService) CreateGroup(ctx context.Context, principal Principal, input GroupInput) (Group, error) {
	if s == nil {
		return Group{}, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return Group{}, fmt.Errorf("group repository not configured")
	}

	name := strings.TrimSpace(input.Name)
	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		return Group{}, vErr
	}

	if input.ParentGroupID != nil {
		if _, err := s.groups.GetGroup(ctx, *input.ParentGroupID); err != nil {
			return Group{}, mapRepoError(err)
		}
		if err := authorize(ctx, s, principal, *input.ParentGroupID, authz.CapManageSettings); err != nil {
			return Group{}, err
		}
	}

	now := s.now()
	group := Group{
		ID:            s.idGenerator(),
		Name:          name,
		ParentGroupID: input.ParentGroupID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	persisted, err := s.groups.CreateGroup(ctx, group)
	if err != nil {
		return Group{}, mapRepoError(err)
	}

	// The creator leads the new group.
	membership := Membership{
		UserID:    principal.UserID,
		EntityID:  persisted.ID,
		Role:      authz.RoleLeader.String(),
		CreatedAt: now,
	}
	if err := s.groups.PutMembership(ctx, membership); err != nil {
		return Group{}, mapRepoError(err)
	}

	return persisted, nil
}

// UpdateGroup renames a group. Requires ManageSettings.
func (s *GroupService) UpdateGroup(ctx context.Context, principal Principal, groupID string, input GroupInput) (Group, error) {
	if s == nil {
		return Group{}, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return Group{}, fmt.Errorf("group repository not configured")
	}

	existing, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return Group{}, mapRepoError(err)
	}

	if err := authorize(ctx, s, principal, groupID, authz.CapManageSettings); err != nil {
		return Group{}, err
	}

	name := strings.TrimSpace(input.Name)
	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		return Group{}, vErr
	}

	updated := existing
	updated.Name = name
	updated.UpdatedAt = s.now()

	persisted, err := s.groups.UpdateGroup(ctx, updated)
	if err != nil {
		return Group{}, mapRepoError(err)
	}
	return persisted, nil
}

// GetGroup returns a group visible to the principal.
func (s *GroupService) GetGroup(ctx context.Context, principal Principal, groupID string) (Group, error) {
	if s == nil {
		return Group{}, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return Group{}, fmt.Errorf("group repository not configured")
	}

	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return Group{}, mapRepoError(err)
	}
	if err := authorize(ctx, s, principal, groupID, authz.CapViewMembers); err != nil {
		return Group{}, err
	}
	return group, nil
}

// ListGroups returns the groups the principal belongs to, directly or
// through an ancestor role. Administrators see everything.
func (s *GroupService) ListGroups(ctx context.Context, principal Principal) ([]Group, error) {
	if s == nil {
		return nil, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return nil, fmt.Errorf("group repository not configured")
	}

	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	if principal.IsAdmin {
		return sortGroups(groups), nil
	}

	hierarchy, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]Group, 0, len(groups))
	for _, group := range groups {
		resolution, err := hierarchy.Resolve(principal.UserID, group.ID)
		if err != nil {
			return nil, err
		}
		if resolution.Role != authz.RoleNone {
			visible = append(visible, group)
		}
	}
	return sortGroups(visible), nil
}

// DeleteGroup removes a group. Requires ManageSettings.
func (s *GroupService) DeleteGroup(ctx context.Context, principal Principal, groupID string) error {
	if s == nil {
		return fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return fmt.Errorf("group repository not configured")
	}

	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return mapRepoError(err)
	}
	if err := authorize(ctx, s, principal, groupID, authz.CapManageSettings); err != nil {
		return err
	}
	return mapRepoError(s.groups.DeleteGroup(ctx, groupID))
}

// CreateProject creates a project under a group. Requires ManageSettings
// on the owning group.
func (s *GroupService) CreateProject(ctx context.Context, principal Principal, input ProjectInput) (Project, error) {
	if s == nil {
		return Project{}, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return Project{}, fmt.Errorf("group repository not configured")
	}

	name := strings.TrimSpace(input.Name)
	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if input.GroupID == "" {
		vErr.add("group_id", "group is required")
	}
	if vErr.HasErrors() {
		return Project{}, vErr
	}

	if _, err := s.groups.GetGroup(ctx, input.GroupID); err != nil {
		return Project{}, mapRepoError(err)
	}
	if err := authorize(ctx, s, principal, input.GroupID, authz.CapManageSettings); err != nil {
		return Project{}, err
	}

	now := s.now()
	project := Project{
		ID:        s.idGenerator(),
		GroupID:   input.GroupID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	persisted, err := s.groups.CreateProject(ctx, project)
	if err != nil {
		return Project{}, mapRepoError(err)
	}
	return persisted, nil
}

// DeleteProject removes a project. Requires ManageSettings on the
// project (satisfied by authority on any ancestor).
func (s *GroupService) DeleteProject(ctx context.Context, principal Principal, projectID string) error {
	if s == nil {
		return fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return fmt.Errorf("group repository not configured")
	}

	if _, err := s.groups.GetProject(ctx, projectID); err != nil {
		return mapRepoError(err)
	}
	if err := authorize(ctx, s, principal, projectID, authz.CapManageSettings); err != nil {
		return err
	}
	return mapRepoError(s.groups.DeleteProject(ctx, projectID))
}

// ListProjects returns the projects under a group. Requires ViewMembers.
func (s *GroupService) ListProjects(ctx context.Context, principal Principal, groupID string) ([]Project, error) {
	if s == nil {
		return nil, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return nil, fmt.Errorf("group repository not configured")
	}

	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return nil, mapRepoError(err)
	}
	if err := authorize(ctx, s, principal, groupID, authz.CapViewMembers); err != nil {
		return nil, err
	}

	projects, err := s.groups.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]Project, 0, len(projects))
	for _, project := range projects {
		if project.GroupID == groupID {
			owned = append(owned, project)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].Name == owned[j].Name {
			return owned[i].ID < owned[j].ID
		}
		return owned[i].Name < owned[j].Name
	})
	return owned, nil
}

// PutMembership assigns or changes a user's role on an entity. Requires
// ManageMembers.
func (s *GroupService) PutMembership(ctx context.Context, principal Principal, membership Membership) error {
	if s == nil {
		return fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return fmt.Errorf("group repository not configured")
	}

	vErr := &ValidationError{}
	if membership.UserID == "" {
		vErr.add("user_id", "user is required")
	}
	if membership.EntityID == "" {
		vErr.add("entity_id", "entity is required")
	}
	if authz.ParseRole(membership.Role) == authz.RoleNone {
		vErr.add("role", "role must be leader, sub_leader, or member")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if err := authorize(ctx, s, principal, membership.EntityID, authz.CapManageMembers); err != nil {
		return err
	}

	membership.CreatedAt = s.now()
	return mapRepoError(s.groups.PutMembership(ctx, membership))
}

// DeleteMembership removes a user's role on an entity. Requires
// ManageMembers; users may always remove their own membership.
func (s *GroupService) DeleteMembership(ctx context.Context, principal Principal, userID, entityID string) error {
	if s == nil {
		return fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return fmt.Errorf("group repository not configured")
	}

	if userID != principal.UserID {
		if err := authorize(ctx, s, principal, entityID, authz.CapManageMembers); err != nil {
			return err
		}
	}
	return mapRepoError(s.groups.DeleteMembership(ctx, userID, entityID))
}

// ListMemberships returns the memberships on an entity. Requires
// ViewMembers.
func (s *GroupService) ListMemberships(ctx context.Context, principal Principal, entityID string) ([]Membership, error) {
	if s == nil {
		return nil, fmt.Errorf("GroupService is nil")
	}
	if s.groups == nil {
		return nil, fmt.Errorf("group repository not configured")
	}

	if err := authorize(ctx, s, principal, entityID, authz.CapViewMembers); err != nil {
		return nil, err
	}
	memberships, err := s.groups.ListMembershipsForEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func sortGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// mapRepoError translates persistence sentinels into application errors.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("reference", "related records are missing")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("input", "input violates a storage constraint")
		return vErr
	}
	return err
}
