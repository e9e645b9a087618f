package application

import (
	"context"
	"errors"

	"github.com/example/dance-group-manager/internal/authz"
)

// HierarchyProvider supplies a snapshot of the entity hierarchy for
// permission resolution. GroupService implements it.
type HierarchyProvider interface {
	Hierarchy(ctx context.Context) (*authz.Hierarchy, error)
}

// authorize verifies that the principal holds the capability on the
// entity. Administrators bypass the hierarchy. An unknown entity maps to
// ErrNotFound, a missing capability to ErrUnauthorized.
func authorize(ctx context.Context, provider HierarchyProvider, principal Principal, entityID string, capability authz.Capability) error {
	if principal.IsAdmin {
		return nil
	}
	if provider == nil {
		return ErrUnauthorized
	}

	hierarchy, err := provider.Hierarchy(ctx)
	if err != nil {
		return err
	}

	allowed, err := hierarchy.HasCapability(principal.UserID, entityID, capability)
	if err != nil {
		if errors.Is(err, authz.ErrEntityNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}
	return nil
}
