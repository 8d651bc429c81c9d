// internal/adapters/out/firestore/snapshot_source_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"storefront/internal/application/realtime"
	cartdom "storefront/internal/domain/cart"
	"storefront/internal/domain/user"
	wishdom "storefront/internal/domain/wishlist"
)

// DocumentSource turns document listeners into realtime snapshots. Keys are
// document paths ("carts/{uid}").
type DocumentSource[T any] struct {
	Client *firestore.Client
	decode func(id string, raw map[string]any, updateTime time.Time) T
}

func NewCartSource(client *firestore.Client) *DocumentSource[*cartdom.Cart] {
	return &DocumentSource[*cartdom.Cart]{Client: client, decode: cartFromData}
}

func NewWishlistSource(client *firestore.Client) *DocumentSource[*wishdom.Wishlist] {
	return &DocumentSource[*wishdom.Wishlist]{Client: client, decode: wishlistFromData}
}

func NewUserSource(client *firestore.Client) *DocumentSource[user.Record] {
	return &DocumentSource[user.Record]{
		Client: client,
		decode: func(id string, raw map[string]any, _ time.Time) user.Record {
			rec := userFromData(raw)
			rec.UID = id
			return rec
		},
	}
}

// Listen implements realtime.Source. An absent document is delivered with
// Exists=false, stamped with the snapshot read time.
func (s *DocumentSource[T]) Listen(ctx context.Context, key string, deliver func(realtime.Snapshot[T])) error {
	if s == nil || s.Client == nil {
		return errors.New("snapshot_source_fs: firestore client is nil")
	}
	key = strings.TrimSpace(key)
	ref := s.Client.Doc(key)
	if ref == nil {
		return errors.New("snapshot_source_fs: invalid document path " + key)
	}

	it := ref.Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return err
		}
		if !snap.Exists() {
			deliver(realtime.Snapshot[T]{Key: key, UpdateTime: snap.ReadTime})
			continue
		}
		deliver(realtime.Snapshot[T]{
			Key:        key,
			Exists:     true,
			Value:      s.decode(ref.ID, snap.Data(), snap.UpdateTime),
			UpdateTime: snap.UpdateTime,
		})
	}
}
