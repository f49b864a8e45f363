package rbac

import (
	"context"
)

// Service resolves users to their effective permissions.
type Service struct {
	repo  Repository
	cache *Cache
}

// NewService constructs a Service.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// CreateRole inserts a role by name.
func (s *Service) CreateRole(ctx context.Context, name string) (*Role, error) {
	return s.repo.CreateRole(ctx, name)
}

// CreatePermission inserts a permission by name.
func (s *Service) CreatePermission(ctx context.Context, name string) (*Permission, error) {
	return s.repo.CreatePermission(ctx, name)
}

// LinkRolePermission attaches a permission to a role. Already cached user
// sets are not targeted here; the cache TTL bounds the staleness window for
// role-wide changes.
func (s *Service) LinkRolePermission(ctx context.Context, roleID, permissionID int64) error {
	return s.repo.LinkRolePermission(ctx, roleID, permissionID)
}

// LinkUserRole assigns a role to a user and drops the user's cached set.
func (s *Service) LinkUserRole(ctx context.Context, userID, roleID int64) error {
	if err := s.repo.LinkUserRole(ctx, userID, roleID); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, userID)
}

// GetUserPermissions loads the user with the deduplicated union of
// permissions across all assigned roles. Fails with shared.ErrNotFound when
// the user does not exist.
func (s *Service) GetUserPermissions(ctx context.Context, userID int64) (*UserPermissions, error) {
	email, err := s.repo.GetUserEmail(ctx, userID)
	if err != nil {
		return nil, err
	}

	if names, ok := s.cache.Get(ctx, userID); ok {
		return &UserPermissions{UserID: userID, Email: email, Permissions: names}, nil
	}

	raw, err := s.repo.ListUserPermissionNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(raw))
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	s.cache.Set(ctx, userID, names)

	return &UserPermissions{UserID: userID, Email: email, Permissions: names}, nil
}

// HasPermission reports whether the user holds the named permission.
func (s *Service) HasPermission(ctx context.Context, userID int64, name string) (bool, error) {
	user, err := s.GetUserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Has(name), nil
}
