package rbac

import "time"

// PermissionDeleteNotes gates note deletion.
const PermissionDeleteNotes = "delete_notes"

// Role represents a grouping of permissions assignable to users.
type Role struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Permission represents an atomic capability.
type Permission struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// UserPermissions is a user together with the union of permissions granted
// by all of their roles. Permissions keep first-encounter order across roles;
// callers must only rely on containment.
type UserPermissions struct {
	UserID      int64
	Email       string
	Permissions []string
}

// Has reports whether the named permission is in the set.
func (u *UserPermissions) Has(name string) bool {
	for _, p := range u.Permissions {
		if p == name {
			return true
		}
	}
	return false
}
