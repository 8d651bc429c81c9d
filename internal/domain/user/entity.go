// internal/domain/user/entity.go
package user

import "strings"

// Role is the coarse-grained role stored on users/{uid}.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleEditor   Role = "editor"
	RoleSupport  Role = "support"
)

// RoleValues returns every role the storefront knows about.
func RoleValues() []Role {
	return []Role{RoleCustomer, RoleAdmin, RoleEditor, RoleSupport}
}

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleEditor, RoleSupport:
		return true
	default:
		return false
	}
}

// CanSelfRegisterAs reports whether a users/{uid} document may be created with role r.
// Mirrors the create rule of the system of record.
func CanSelfRegisterAs(r Role) bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Record mirrors users/{uid}. The system of record owns its lifecycle;
// the core only reads it.
type Record struct {
	UID         string `json:"uid" firestore:"-"`
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"displayName" firestore:"displayName"`
	Role        Role   `json:"role" firestore:"role"`
	Suspended   bool   `json:"suspended,omitempty" firestore:"suspended,omitempty"`
	Deactivated bool   `json:"deactivated,omitempty" firestore:"deactivated,omitempty"`
}

// Normalize trims identifiers and lower-cases the role.
func (r Record) Normalize() Record {
	r.UID = strings.TrimSpace(r.UID)
	r.Email = strings.TrimSpace(r.Email)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Role = Role(strings.ToLower(strings.TrimSpace(string(r.Role))))
	return r
}

// AccessChanged reports whether the fields that gate access differ between two records.
func (r Record) AccessChanged(other Record) bool {
	return r.Role != other.Role || r.Suspended != other.Suspended || r.Deactivated != other.Deactivated
}
