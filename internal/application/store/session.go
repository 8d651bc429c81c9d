// internal/application/store/session.go
package store

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/application/realtime"
	"storefront/internal/domain/user"
	"storefront/internal/infra/logging"
)

// SessionAuth is what Session needs from the session validator.
type SessionAuth interface {
	ActiveSubject(ctx context.Context, subjectID string) (user.Record, error)
	Invalidate(subjectID string)
}

// Session owns the subject-scoped singletons: the cart, the wishlist, the
// users/{uid} watcher and the subject's permission-cache entries.
type Session struct {
	auth     SessionAuth
	users    *realtime.Manager[user.Record]
	cart     *CartStore
	wishlist *WishlistStore
	logger   *zap.Logger

	// switchMu serializes SignIn/SignOut.
	switchMu sync.Mutex

	mu      sync.RWMutex
	subject string
	record  user.Record
}

func NewSession(auth SessionAuth, users *realtime.Manager[user.Record], cart *CartStore, wishlist *WishlistStore, logger *zap.Logger) *Session {
	return &Session{
		auth:     auth,
		users:    users,
		cart:     cart,
		wishlist: wishlist,
		logger:   logging.OrNop(logger).Named("session"),
	}
}

func (s *Session) Cart() *CartStore         { return s.cart }
func (s *Session) Wishlist() *WishlistStore { return s.wishlist }

// Subject is the signed-in uid, or "".
func (s *Session) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

// Record is the last known users/{uid} of the subject.
func (s *Session) Record() user.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// SignIn makes uid the current subject. A different active subject is signed
// out first so none of its state leaks into the new session.
func (s *Session) SignIn(ctx context.Context, uid string) (user.Record, error) {
	uid = strings.TrimSpace(uid)

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	if cur := s.Subject(); cur != "" && cur != uid {
		s.signOutLocked(ctx)
	}

	rec, err := s.auth.ActiveSubject(ctx, uid)
	if err != nil {
		return user.Record{}, err
	}

	s.mu.Lock()
	s.subject = uid
	s.record = rec
	s.mu.Unlock()

	s.users.Subscribe(user.DocPath(uid), s.onUser(uid), func(err error) {
		s.logger.Warn("user watcher ended", zap.String("subjectId", uid), zap.Error(err))
	})

	if err := s.cart.Load(ctx, uid); err != nil {
		return rec, err
	}
	if s.wishlist != nil {
		if err := s.wishlist.Load(ctx, uid); err != nil {
			return rec, err
		}
	}
	s.logger.Info("signed in", zap.String("subjectId", uid), zap.String("role", string(rec.Role)))
	return rec, nil
}

// SignOut cancels every subscription of the subject, then invalidates its
// permission entries and clears both stores.
func (s *Session) SignOut(ctx context.Context) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	s.signOutLocked(ctx)
}

func (s *Session) signOutLocked(ctx context.Context) {
	uid := s.Subject()

	if uid != "" {
		s.users.Unsubscribe(user.DocPath(uid))
	}
	s.cart.Reset(ctx)
	if s.wishlist != nil {
		s.wishlist.Reset(ctx)
	}
	if uid != "" {
		s.auth.Invalidate(uid)
	}

	s.mu.Lock()
	s.subject = ""
	s.record = user.Record{}
	s.mu.Unlock()

	if uid != "" {
		s.logger.Info("signed out", zap.String("subjectId", uid))
	}
}

// onUser invalidates the subject's cached verdicts when the pushed record
// changes role or status flags.
func (s *Session) onUser(uid string) func(realtime.Snapshot[user.Record]) {
	return func(snap realtime.Snapshot[user.Record]) {
		s.mu.Lock()
		if s.subject != uid {
			s.mu.Unlock()
			return
		}
		prev := s.record
		var next user.Record
		if snap.Exists {
			next = snap.Value.Normalize()
			next.UID = uid
			s.record = next
		}
		s.mu.Unlock()

		if !snap.Exists || prev.AccessChanged(next) {
			s.auth.Invalidate(uid)
			s.logger.Info("access changed, permission cache invalidated",
				zap.String("subjectId", uid),
				zap.Bool("exists", snap.Exists),
				zap.String("role", string(next.Role)),
			)
		}
	}
}
