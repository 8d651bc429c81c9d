// internal/domain/user/repository_port.go
package user

import "context"

// Reader is the read-only view of users/{uid} the core relies on.
// GetByID returns common.ErrNotFound when the document does not exist.
type Reader interface {
	GetByID(ctx context.Context, uid string) (Record, error)
}

// RoleWriter is used by operator tooling only (storectl role set).
type RoleWriter interface {
	SetRole(ctx context.Context, uid string, role Role) error
}

const Collection = "users"

// DocPath is "users/{uid}".
func DocPath(uid string) string { return Collection + "/" + uid }
