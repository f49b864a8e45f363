package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkpad-app/inkpad/internal/shared"
)

// Repository defines persistence operations for roles and permissions.
type Repository interface {
	CreateRole(ctx context.Context, name string) (*Role, error)
	CreatePermission(ctx context.Context, name string) (*Permission, error)
	LinkRolePermission(ctx context.Context, roleID, permissionID int64) error
	LinkUserRole(ctx context.Context, userID, roleID int64) error
	GetUserEmail(ctx context.Context, userID int64) (string, error)
	ListUserPermissionNames(ctx context.Context, userID int64) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateRole inserts a role, returning the existing row on name conflict.
func (r *PGRepository) CreateRole(ctx context.Context, name string) (*Role, error) {
	role := &Role{Name: name}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, created_at`, name,
	).Scan(&role.ID, &role.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("rbac: create role: %w", err)
	}
	return role, nil
}

// CreatePermission inserts a permission, returning the existing row on name
// conflict.
func (r *PGRepository) CreatePermission(ctx context.Context, name string) (*Permission, error) {
	perm := &Permission{Name: name}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, created_at`, name,
	).Scan(&perm.ID, &perm.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("rbac: create permission: %w", err)
	}
	return perm, nil
}

// LinkRolePermission attaches a permission to a role.
func (r *PGRepository) LinkRolePermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, roleID, permissionID)
	if err != nil {
		return fmt.Errorf("rbac: link role permission: %w", err)
	}
	return nil
}

// LinkUserRole assigns a role to a user.
func (r *PGRepository) LinkUserRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userID, roleID)
	if err != nil {
		return fmt.Errorf("rbac: link user role: %w", err)
	}
	return nil
}

// GetUserEmail fetches the email for a user, shared.ErrNotFound when absent.
func (r *PGRepository) GetUserEmail(ctx context.Context, userID int64) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", fmt.Errorf("rbac: get user: %w", err)
	}
	return email, nil
}

// ListUserPermissionNames returns permission names across all of the user's
// roles, possibly with duplicates, ordered by role assignment then permission
// attachment so first-encounter deduplication is stable.
func (r *PGRepository) ListUserPermissionNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.name
		 FROM user_roles ur
		 JOIN role_permissions rp ON rp.role_id = ur.role_id
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE ur.user_id = $1
		 ORDER BY ur.created_at, ur.role_id, rp.created_at, p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: list user permissions: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: iterate permissions: %w", err)
	}
	return names, nil
}

var _ Repository = (*PGRepository)(nil)
