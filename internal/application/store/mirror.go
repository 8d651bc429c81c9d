// Package store holds the subject-scoped state mirrors (cart, wishlist) and
// the session that owns them.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/application/realtime"
	"storefront/internal/domain/user"
)

// LocalStorage keeps the last-known state across restarts under a fixed name.
type LocalStorage interface {
	Load(ctx context.Context, name string) ([]byte, bool, error)
	Save(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// SubjectChecker confirms a subject exists and is active.
type SubjectChecker interface {
	ActiveSubject(ctx context.Context, subjectID string) (user.Record, error)
}

// persisted is the local-storage envelope.
type persisted[T any] struct {
	Subject   string    `json:"subject"`
	Value     T         `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// mirror keeps one subject's copy of a document consistent between
// authoritative write results and snapshot pushes.
//
// A value stamped at or before the last applied one is dropped, whichever path
// it came from. Restored state is provisional: the first read or push replaces
// it unconditionally.
type mirror[T any] struct {
	storageName string
	docPath     func(uid string) string
	empty       func(uid string) T
	clone       func(T) T
	stamp       func(T) time.Time
	setStamp    func(T, time.Time) T

	subs    *realtime.Manager[T]
	storage LocalStorage
	checker SubjectChecker
	logger  *zap.Logger
	group   singleflight.Group

	mu          sync.RWMutex
	subject     string
	value       T
	has         bool
	provisional bool
	lastApplied time.Time
	err         error
	observers   []func(T)
}

// load validates the subject, reads once and opens the subscription.
// Concurrent loads for the same subject share one execution.
func (m *mirror[T]) load(ctx context.Context, subjectID string, read func(context.Context, string) (T, error)) error {
	uid := strings.TrimSpace(subjectID)
	if uid == "" {
		return nil
	}

	_, err, _ := m.group.Do(uid, func() (any, error) {
		key := m.docPath(uid)

		m.mu.RLock()
		ready := m.subject == uid && m.has && !m.provisional && m.subs.Active(key)
		m.mu.RUnlock()
		if ready {
			return nil, nil
		}

		if _, err := m.checker.ActiveSubject(ctx, uid); err != nil {
			return nil, err
		}
		v, err := read(ctx, uid)
		if err != nil {
			m.setErr(uid, err)
			return nil, err
		}

		m.mu.Lock()
		if m.subject != uid {
			m.lastApplied = time.Time{}
		}
		m.subject = uid
		m.err = nil
		m.mu.Unlock()
		m.adopt(uid, v)

		m.subs.Subscribe(key, m.onPush(uid), m.onError(uid))
		return nil, nil
	})
	return err
}

// adopt installs v when it is newer than the applied state. It reports whether
// v was taken.
func (m *mirror[T]) adopt(uid string, v T) bool {
	at := m.stamp(v)

	m.mu.Lock()
	if m.subject == "" {
		m.subject = uid
	}
	if m.subject != uid {
		m.mu.Unlock()
		return false
	}
	if m.has && !m.provisional && !m.lastApplied.IsZero() && !at.After(m.lastApplied) {
		m.mu.Unlock()
		m.logger.Debug("stale state dropped", zap.String("subjectId", uid), zap.Time("at", at), zap.Time("applied", m.lastApplied))
		return false
	}
	m.value = m.clone(v)
	m.has = true
	m.provisional = false
	if at.After(m.lastApplied) {
		m.lastApplied = at
	}
	m.persistLocked()
	cur := m.clone(m.value)
	observers := append([]func(T){}, m.observers...)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(cur)
	}
	return true
}

// write runs an authoritative mutation and adopts its result.
func (m *mirror[T]) write(ctx context.Context, subjectID string, fn func(context.Context, string) (T, error)) (T, error) {
	uid := strings.TrimSpace(subjectID)
	v, err := fn(ctx, uid)
	if err != nil {
		var zero T
		return zero, err
	}
	m.adopt(uid, v)
	return v, nil
}

func (m *mirror[T]) onPush(uid string) func(realtime.Snapshot[T]) {
	return func(s realtime.Snapshot[T]) {
		var v T
		if s.Exists {
			v = m.clone(s.Value)
		} else {
			v = m.empty(uid)
		}
		if !s.UpdateTime.IsZero() {
			v = m.setStamp(v, s.UpdateTime)
		}
		m.adopt(uid, v)
	}
}

// onError records the failure in the error slot. The subscription is dead; a
// later load opens a new one.
func (m *mirror[T]) onError(uid string) func(error) {
	return func(err error) {
		m.logger.Warn("subscription ended", zap.String("subjectId", uid), zap.Error(err))
		m.setErr(uid, err)
	}
}

func (m *mirror[T]) setErr(uid string, err error) {
	m.mu.Lock()
	if m.subject == "" || m.subject == uid {
		m.err = err
	}
	m.mu.Unlock()
}

// reset cancels the subscription first, then clears memory and local storage.
func (m *mirror[T]) reset(ctx context.Context) {
	m.mu.RLock()
	uid := m.subject
	m.mu.RUnlock()
	if uid != "" {
		m.subs.Unsubscribe(m.docPath(uid))
	}

	var zero T
	m.mu.Lock()
	m.subject = ""
	m.value = zero
	m.has = false
	m.provisional = false
	m.lastApplied = time.Time{}
	m.err = nil
	m.mu.Unlock()

	if m.storage != nil {
		if err := m.storage.Delete(ctx, m.storageName); err != nil {
			m.logger.Warn("local state delete failed", zap.Error(err))
		}
	}
}

// restore loads the persisted state as provisional.
func (m *mirror[T]) restore(ctx context.Context) (bool, error) {
	if m.storage == nil {
		return false, nil
	}
	raw, ok, err := m.storage.Load(ctx, m.storageName)
	if err != nil || !ok {
		return false, err
	}
	var p persisted[T]
	if err := json.Unmarshal(raw, &p); err != nil {
		m.logger.Warn("local state unreadable, discarded", zap.Error(err))
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.has && !m.provisional {
		return false, nil
	}
	m.subject = p.Subject
	m.value = p.Value
	m.has = true
	m.provisional = true
	m.lastApplied = time.Time{}
	return true, nil
}

// persistLocked saves the current state. Callers hold m.mu.
func (m *mirror[T]) persistLocked() {
	if m.storage == nil {
		return
	}
	raw, err := json.Marshal(persisted[T]{Subject: m.subject, Value: m.value, UpdatedAt: m.lastApplied})
	if err != nil {
		m.logger.Warn("local state encode failed", zap.Error(err))
		return
	}
	if err := m.storage.Save(context.Background(), m.storageName, raw); err != nil {
		m.logger.Warn("local state save failed", zap.Error(err))
	}
}

func (m *mirror[T]) snapshot() (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.has {
		var zero T
		return zero, false
	}
	return m.clone(m.value), true
}

func (m *mirror[T]) status() (subject string, provisional bool, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.subject, m.provisional, m.err
}

func (m *mirror[T]) observe(fn func(T)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}
