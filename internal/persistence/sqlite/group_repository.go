package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/dance-group-manager/internal/persistence"
)

// GroupRepository implements persistence.GroupRepository using SQLite. It
// covers groups, projects, and memberships, which together form the
// entity hierarchy.
type GroupRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewGroupRepository creates a new SQLite group repository.
func NewGroupRepository(pool *ConnectionPool) *GroupRepository {
	return &GroupRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateGroup inserts a group or sub-group.
func (r *GroupRepository) CreateGroup(ctx context.Context, group persistence.Group) error {
	if group.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx,
		"INSERT INTO groups (id, name, parent_group_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		group.ID,
		group.Name,
		nullString(group.ParentGroupID),
		formatTime(stampOrNow(group.CreatedAt)),
		formatTime(stampOrNow(group.UpdatedAt)),
	)
	return r.mapper.MapError(err)
}

// UpdateGroup updates a group's name and parent.
func (r *GroupRepository) UpdateGroup(ctx context.Context, group persistence.Group) error {
	result, err := r.pool.DB().ExecContext(ctx,
		"UPDATE groups SET name = ?, parent_group_id = ?, updated_at = ? WHERE id = ?",
		group.Name,
		nullString(group.ParentGroupID),
		formatTime(stampOrNow(group.UpdatedAt)),
		group.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// GetGroup retrieves a group by id.
func (r *GroupRepository) GetGroup(ctx context.Context, id string) (persistence.Group, error) {
	if id == "" {
		return persistence.Group{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT id, name, parent_group_id, created_at, updated_at FROM groups WHERE id = ?", id)
	return r.scanGroup(row)
}

// ListGroups returns every group.
func (r *GroupRepository) ListGroups(ctx context.Context) ([]persistence.Group, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		"SELECT id, name, parent_group_id, created_at, updated_at FROM groups ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var groups []persistence.Group
	for rows.Next() {
		group, err := r.scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return groups, nil
}

// DeleteGroup removes a group together with its memberships.
func (r *GroupRepository) DeleteGroup(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM memberships WHERE entity_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := tx.Exec("DELETE FROM groups WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireRowsAffected(result)
	})
}

// CreateProject inserts a project under its owning group.
func (r *GroupRepository) CreateProject(ctx context.Context, project persistence.Project) error {
	if project.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx,
		"INSERT INTO projects (id, group_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		project.ID,
		project.GroupID,
		project.Name,
		formatTime(stampOrNow(project.CreatedAt)),
		formatTime(stampOrNow(project.UpdatedAt)),
	)
	return r.mapper.MapError(err)
}

// GetProject retrieves a project by id.
func (r *GroupRepository) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	if id == "" {
		return persistence.Project{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT id, group_id, name, created_at, updated_at FROM projects WHERE id = ?", id)
	return r.scanProject(row)
}

// ListProjects returns every project.
func (r *GroupRepository) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		"SELECT id, group_id, name, created_at, updated_at FROM projects ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var projects []persistence.Project
	for rows.Next() {
		project, err := r.scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return projects, nil
}

// DeleteProject removes a project together with its memberships.
func (r *GroupRepository) DeleteProject(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM memberships WHERE entity_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := tx.Exec("DELETE FROM projects WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireRowsAffected(result)
	})
}

// PutMembership inserts or replaces a user's role on an entity.
func (r *GroupRepository) PutMembership(ctx context.Context, membership persistence.Membership) error {
	if membership.UserID == "" || membership.EntityID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO memberships (user_id, entity_id, role, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, entity_id) DO UPDATE SET role = excluded.role`,
		membership.UserID,
		membership.EntityID,
		membership.Role,
		formatTime(stampOrNow(membership.CreatedAt)),
	)
	return r.mapper.MapError(err)
}

// DeleteMembership removes a user's role on an entity.
func (r *GroupRepository) DeleteMembership(ctx context.Context, userID, entityID string) error {
	result, err := r.pool.DB().ExecContext(ctx,
		"DELETE FROM memberships WHERE user_id = ? AND entity_id = ?", userID, entityID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// ListMemberships returns every membership.
func (r *GroupRepository) ListMemberships(ctx context.Context) ([]persistence.Membership, error) {
	return r.queryMemberships(ctx,
		"SELECT user_id, entity_id, role, created_at FROM memberships ORDER BY entity_id ASC, user_id ASC")
}

// ListMembershipsForEntity returns the memberships on a single entity.
func (r *GroupRepository) ListMembershipsForEntity(ctx context.Context, entityID string) ([]persistence.Membership, error) {
	return r.queryMemberships(ctx,
		"SELECT user_id, entity_id, role, created_at FROM memberships WHERE entity_id = ? ORDER BY user_id ASC",
		entityID)
}

func (r *GroupRepository) queryMemberships(ctx context.Context, query string, args ...any) ([]persistence.Membership, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var memberships []persistence.Membership
	for rows.Next() {
		var m persistence.Membership
		var createdAt string
		if err := rows.Scan(&m.UserID, &m.EntityID, &m.Role, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if m.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return memberships, nil
}

func (r *GroupRepository) scanGroup(row rowScanner) (persistence.Group, error) {
	var group persistence.Group
	var parentID sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&group.ID, &group.Name, &parentID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Group{}, persistence.ErrNotFound
		}
		return persistence.Group{}, r.mapper.MapError(err)
	}

	group.ParentGroupID = stringPtr(parentID)
	if group.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Group{}, err
	}
	if group.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Group{}, err
	}
	return group, nil
}

func (r *GroupRepository) scanProject(row rowScanner) (persistence.Project, error) {
	var project persistence.Project
	var createdAt, updatedAt string

	err := row.Scan(&project.ID, &project.GroupID, &project.Name, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Project{}, persistence.ErrNotFound
		}
		return persistence.Project{}, r.mapper.MapError(err)
	}

	if project.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Project{}, err
	}
	if project.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Project{}, err
	}
	return project, nil
}
