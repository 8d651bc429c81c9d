// internal/adapters/out/firestore/user_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	"storefront/internal/domain/common"
	"storefront/internal/domain/user"
)

// UserRepositoryFS reads users/{uid}. Writes are owned by the system of record;
// SetRole exists for operator tooling.
type UserRepositoryFS struct {
	Client *firestore.Client
}

func NewUserRepositoryFS(client *firestore.Client) *UserRepositoryFS {
	return &UserRepositoryFS{Client: client}
}

func (r *UserRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(user.Collection)
}

// GetByID returns common.ErrNotFound when the document is absent.
func (r *UserRepositoryFS) GetByID(ctx context.Context, uid string) (user.Record, error) {
	if r == nil || r.Client == nil {
		return user.Record{}, errors.New("user_repository_fs: firestore client is nil")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return user.Record{}, common.ErrNotFound
	}

	snap, err := r.col().Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return user.Record{}, common.ErrNotFound
		}
		return user.Record{}, err
	}
	rec := userFromData(snap.Data())
	rec.UID = uid
	return rec, nil
}

// SetRole changes the role of an existing user.
func (r *UserRepositoryFS) SetRole(ctx context.Context, uid string, role user.Role) error {
	if r == nil || r.Client == nil {
		return errors.New("user_repository_fs: firestore client is nil")
	}
	uid = strings.TrimSpace(uid)
	role = user.Role(strings.ToLower(strings.TrimSpace(string(role))))
	if !user.IsValidRole(role) {
		return common.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}

	_, err := r.col().Doc(uid).Update(ctx, []firestore.Update{
		{Path: "role", Value: string(role)},
	})
	if isNotFound(err) {
		return common.ErrNotFound
	}
	return err
}

func userFromData(raw map[string]any) user.Record {
	return user.Record{
		Email:       asString(raw["email"]),
		DisplayName: asString(raw["displayName"]),
		Role:        user.Role(asString(raw["role"])),
		Suspended:   asBool(raw["suspended"]),
		Deactivated: asBool(raw["deactivated"]),
	}.Normalize()
}
