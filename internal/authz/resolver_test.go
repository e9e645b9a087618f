package authz

import (
	"errors"
	"testing"
)

func strPtr(v string) *string { return &v }

// crew -> performance-team -> project; crew is the root.
func danceHierarchy(memberships []Membership) *Hierarchy {
	nodes := []Node{
		{ID: "crew", Kind: EntityGroup},
		{ID: "performance-team", Kind: EntityGroup, ParentID: strPtr("crew")},
		{ID: "spring-showcase", Kind: EntityProject, ParentID: strPtr("performance-team")},
	}
	return NewHierarchy(nodes, memberships)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("direct role on the entity", func(t *testing.T) {
		t.Parallel()

		h := danceHierarchy([]Membership{
			{UserID: "user-1", EntityID: "spring-showcase", Role: RoleMember},
		})

		resolution, err := h.Resolve("user-1", "spring-showcase")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolution.Role != RoleMember {
			t.Fatalf("expected member, got %s", resolution.Role)
		}
	})

	t.Run("ancestor role propagates downward", func(t *testing.T) {
		t.Parallel()

		h := danceHierarchy([]Membership{
			{UserID: "user-1", EntityID: "crew", Role: RoleLeader},
		})

		resolution, err := h.Resolve("user-1", "spring-showcase")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolution.Role != RoleLeader {
			t.Fatalf("expected leader, got %s", resolution.Role)
		}
	})

	t.Run("maximum authority wins across the chain", func(t *testing.T) {
		t.Parallel()

		h := danceHierarchy([]Membership{
			{UserID: "user-1", EntityID: "crew", Role: RoleMember},
			{UserID: "user-1", EntityID: "performance-team", Role: RoleSubLeader},
		})

		resolution, err := h.Resolve("user-1", "spring-showcase")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolution.Role != RoleSubLeader {
			t.Fatalf("expected sub_leader, got %s", resolution.Role)
		}
	})

	t.Run("no membership anywhere yields none", func(t *testing.T) {
		t.Parallel()

		h := danceHierarchy(nil)

		resolution, err := h.Resolve("stranger", "spring-showcase")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolution.Role != RoleNone {
			t.Fatalf("expected none, got %s", resolution.Role)
		}
		if len(resolution.Capabilities) != 0 {
			t.Fatalf("expected no capabilities, got %v", resolution.Capabilities)
		}
	})

	t.Run("descendant role does not flow upward", func(t *testing.T) {
		t.Parallel()

		h := danceHierarchy([]Membership{
			{UserID: "user-1", EntityID: "spring-showcase", Role: RoleLeader},
		})

		resolution, err := h.Resolve("user-1", "crew")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolution.Role != RoleNone {
			t.Fatalf("expected none at the root, got %s", resolution.Role)
		}
	})

	t.Run("unknown entity", func(t *testing.T) {
		t.Parallel()

		h := danceHierarchy(nil)
		if _, err := h.Resolve("user-1", "missing"); !errors.Is(err, ErrEntityNotFound) {
			t.Fatalf("expected ErrEntityNotFound, got %v", err)
		}
	})

	t.Run("parent cycle is reported", func(t *testing.T) {
		t.Parallel()

		h := NewHierarchy([]Node{
			{ID: "a", Kind: EntityGroup, ParentID: strPtr("b")},
			{ID: "b", Kind: EntityGroup, ParentID: strPtr("a")},
		}, nil)

		if _, err := h.Resolve("user-1", "a"); !errors.Is(err, ErrHierarchyCorrupted) {
			t.Fatalf("expected ErrHierarchyCorrupted, got %v", err)
		}
	})

	t.Run("dangling parent is reported", func(t *testing.T) {
		t.Parallel()

		h := NewHierarchy([]Node{
			{ID: "orphan", Kind: EntityGroup, ParentID: strPtr("gone")},
		}, nil)

		if _, err := h.Resolve("user-1", "orphan"); !errors.Is(err, ErrHierarchyCorrupted) {
			t.Fatalf("expected ErrHierarchyCorrupted, got %v", err)
		}
	})
}

func TestHasCapability(t *testing.T) {
	t.Parallel()

	h := danceHierarchy([]Membership{
		{UserID: "leader", EntityID: "crew", Role: RoleLeader},
		{UserID: "sub", EntityID: "performance-team", Role: RoleSubLeader},
		{UserID: "dancer", EntityID: "spring-showcase", Role: RoleMember},
	})

	cases := []struct {
		name     string
		userID   string
		entityID string
		cap      Capability
		want     bool
	}{
		{"leader manages settings everywhere", "leader", "spring-showcase", CapManageSettings, true},
		{"leader manages finance", "leader", "crew", CapManageFinance, true},
		{"sub leader edits schedules", "sub", "spring-showcase", CapEditSchedule, true},
		{"sub leader cannot manage members", "sub", "performance-team", CapManageMembers, false},
		{"member views schedules", "dancer", "spring-showcase", CapViewSchedule, true},
		{"member cannot edit schedules", "dancer", "spring-showcase", CapEditSchedule, false},
		{"member role stays on its subtree", "dancer", "crew", CapViewSchedule, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := h.HasCapability(tc.userID, tc.entityID, tc.cap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("HasCapability(%s, %s, %s) = %v, want %v", tc.userID, tc.entityID, tc.cap, got, tc.want)
			}
		})
	}
}

func TestCapabilityTableIsMonotonic(t *testing.T) {
	t.Parallel()

	order := []Role{RoleNone, RoleMember, RoleSubLeader, RoleLeader}
	for i := 1; i < len(order); i++ {
		lower := capabilitiesByRole[order[i-1]]
		higher := make(map[Capability]struct{})
		for _, cap := range capabilitiesByRole[order[i]] {
			higher[cap] = struct{}{}
		}
		for _, cap := range lower {
			if _, ok := higher[cap]; !ok {
				t.Fatalf("role %s is missing capability %s granted to %s", order[i], cap, order[i-1])
			}
		}
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	cases := map[string]Role{
		"leader":     RoleLeader,
		"sub_leader": RoleSubLeader,
		"member":     RoleMember,
		"":           RoleNone,
		"unknown":    RoleNone,
	}
	for value, want := range cases {
		if got := ParseRole(value); got != want {
			t.Fatalf("ParseRole(%q) = %v, want %v", value, got, want)
		}
	}
	if RoleLeader.String() != "leader" || RoleSubLeader.String() != "sub_leader" {
		t.Fatal("unexpected role string representation")
	}
}
