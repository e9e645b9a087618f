// Package authz resolves effective roles and capabilities across the
// group/project hierarchy.
package authz

import "errors"

// Role is a membership role ordered by authority.
type Role int

const (
	RoleNone Role = iota
	RoleMember
	RoleSubLeader
	RoleLeader
)

// String returns the storage representation of the role.
func (r Role) String() string {
	switch r {
	case RoleLeader:
		return "leader"
	case RoleSubLeader:
		return "sub_leader"
	case RoleMember:
		return "member"
	default:
		return "none"
	}
}

// ParseRole maps a storage representation back to a Role. Unknown values
// map to RoleNone.
func ParseRole(value string) Role {
	switch value {
	case "leader":
		return RoleLeader
	case "sub_leader":
		return RoleSubLeader
	case "member":
		return RoleMember
	default:
		return RoleNone
	}
}

// Capability is an action a role may perform on an entity.
type Capability string

const (
	CapManageSettings   Capability = "manage_settings"
	CapManageMembers    Capability = "manage_members"
	CapManageFinance    Capability = "manage_finance"
	CapEditSchedule     Capability = "edit_schedule"
	CapManageAttendance Capability = "manage_attendance"
	CapViewSchedule     Capability = "view_schedule"
	CapViewMembers      Capability = "view_members"
)

// capabilitiesByRole is the single static derivation table. Each role's
// set is a superset of the next lower role's.
var capabilitiesByRole = map[Role][]Capability{
	RoleLeader: {
		CapManageSettings,
		CapManageMembers,
		CapManageFinance,
		CapEditSchedule,
		CapManageAttendance,
		CapViewSchedule,
		CapViewMembers,
	},
	RoleSubLeader: {
		CapEditSchedule,
		CapManageAttendance,
		CapViewSchedule,
		CapViewMembers,
	},
	RoleMember: {
		CapViewSchedule,
		CapViewMembers,
	},
	RoleNone: nil,
}

// EntityKind distinguishes the node types of the hierarchy.
type EntityKind string

const (
	EntityGroup   EntityKind = "group"
	EntityProject EntityKind = "project"
)

// Node is one entity in the hierarchy. A nil ParentID marks a root.
type Node struct {
	ID       string
	Kind     EntityKind
	ParentID *string
}

// Membership is a user's direct role on a single entity.
type Membership struct {
	UserID   string
	EntityID string
	Role     Role
}

// Resolution is the outcome of resolving a user against an entity.
type Resolution struct {
	Role         Role
	Capabilities []Capability
}

// ErrEntityNotFound indicates the entity to resolve against is unknown.
var ErrEntityNotFound = errors.New("authz: entity not found")

// ErrHierarchyCorrupted indicates the parent chain contains a cycle or a
// dangling parent reference.
var ErrHierarchyCorrupted = errors.New("authz: hierarchy corrupted")

// Hierarchy is an immutable snapshot of the entity tree and direct
// memberships, safe for concurrent reads.
type Hierarchy struct {
	nodes map[string]Node
	roles map[string]map[string]Role // userID -> entityID -> role
}

// NewHierarchy builds a snapshot from nodes and memberships. When a user
// holds several direct roles on one entity, the highest authority wins.
func NewHierarchy(nodes []Node, memberships []Membership) *Hierarchy {
	h := &Hierarchy{
		nodes: make(map[string]Node, len(nodes)),
		roles: make(map[string]map[string]Role),
	}
	for _, node := range nodes {
		h.nodes[node.ID] = node
	}
	for _, m := range memberships {
		byEntity, ok := h.roles[m.UserID]
		if !ok {
			byEntity = make(map[string]Role)
			h.roles[m.UserID] = byEntity
		}
		if m.Role > byEntity[m.EntityID] {
			byEntity[m.EntityID] = m.Role
		}
	}
	return h
}

// Resolve computes the user's effective role at the entity: the maximum
// authority of their direct roles on the entity and every ancestor up to
// the root. Capabilities follow from the effective role.
func (h *Hierarchy) Resolve(userID, entityID string) (Resolution, error) {
	if _, ok := h.nodes[entityID]; !ok {
		return Resolution{}, ErrEntityNotFound
	}

	direct := h.roles[userID]
	effective := RoleNone
	visited := make(map[string]struct{})

	current := entityID
	for {
		if _, seen := visited[current]; seen {
			return Resolution{}, ErrHierarchyCorrupted
		}
		visited[current] = struct{}{}

		node, ok := h.nodes[current]
		if !ok {
			// A parent pointer leads outside the snapshot.
			return Resolution{}, ErrHierarchyCorrupted
		}
		if role := direct[current]; role > effective {
			effective = role
		}
		if node.ParentID == nil {
			break
		}
		current = *node.ParentID
	}

	return Resolution{
		Role:         effective,
		Capabilities: capabilitiesByRole[effective],
	}, nil
}

// HasCapability reports whether the user's effective role at the entity
// grants the capability.
func (h *Hierarchy) HasCapability(userID, entityID string, cap Capability) (bool, error) {
	resolution, err := h.Resolve(userID, entityID)
	if err != nil {
		return false, err
	}
	for _, granted := range resolution.Capabilities {
		if granted == cap {
			return true, nil
		}
	}
	return false, nil
}
