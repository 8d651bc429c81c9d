// Package realtime owns the live server-push subscriptions of the process.
package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/infra/logging"
	"storefront/internal/infra/metrics"
)

// ErrStreamClosed is reported when a listener ends without being cancelled.
var ErrStreamClosed = errors.New("realtime: stream closed by server")

// Snapshot is a full-replace view of one resource. Exists=false means the
// document is absent, which consumers treat as an empty resource.
type Snapshot[T any] struct {
	Key        string
	Exists     bool
	Value      T
	UpdateTime time.Time
}

// Source opens server-push listeners. Listen blocks, calling deliver for every
// snapshot in transport order, until ctx is cancelled (return nil or ctx.Err())
// or the listener fails (return the error).
type Source[T any] interface {
	Listen(ctx context.Context, key string, deliver func(Snapshot[T])) error
}

// CancelFunc stops a subscription. It is idempotent and, once it returns, no
// further callbacks of that subscription run.
type CancelFunc func()

type subscription struct {
	mu     sync.Mutex
	live   bool
	cancel context.CancelFunc
}

// stop marks the subscription dead. It waits for an in-flight delivery, so a
// callback must not cancel its own subscription synchronously.
func (s *subscription) stop() bool {
	s.mu.Lock()
	was := s.live
	s.live = false
	s.mu.Unlock()
	s.cancel()
	return was
}

// Manager keeps at most one live subscription per resource key.
type Manager[T any] struct {
	name    string
	source  Source[T]
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	subs map[string]*subscription
}

func NewManager[T any](name string, source Source[T], logger *zap.Logger, m *metrics.Metrics) *Manager[T] {
	return &Manager[T]{
		name:    name,
		source:  source,
		logger:  logging.OrNop(logger).Named("subscriptions").With(zap.String("manager", name)),
		metrics: m,
		subs:    map[string]*subscription{},
	}
}

// Subscribe cancels any existing subscription for key, then opens a new listener.
// onChange receives full snapshots; onError receives the failure that ended the
// listener, after which the subscription is dead and is not retried.
func (m *Manager[T]) Subscribe(key string, onChange func(Snapshot[T]), onError func(error)) CancelFunc {
	key = strings.TrimSpace(key)
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{live: true, cancel: cancel}

	m.mu.Lock()
	if prev, ok := m.subs[key]; ok {
		prev.stop()
		m.logger.Debug("replaced subscription", zap.String("key", key))
	}
	m.subs[key] = sub
	n := len(m.subs)
	m.mu.Unlock()
	m.metrics.SetSubscriptions(m.name, n)

	deliver := func(s Snapshot[T]) {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		if !sub.live {
			return
		}
		s.Key = key
		if onChange != nil {
			onChange(s)
		}
	}

	go func() {
		err := m.source.Listen(ctx, key, deliver)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = ErrStreamClosed
		}

		sub.mu.Lock()
		was := sub.live
		sub.live = false
		sub.mu.Unlock()
		if !was {
			return
		}
		m.remove(key, sub)
		cancel()

		m.logger.Warn("subscription failed", zap.String("key", key), zap.Error(err))
		if onError != nil {
			onError(err)
		}
	}()

	return func() {
		if m.remove(key, sub) {
			sub.stop()
		}
	}
}

// Unsubscribe cancels the subscription for key. It is a no-op when none exists.
func (m *Manager[T]) Unsubscribe(key string) {
	key = strings.TrimSpace(key)

	m.mu.Lock()
	sub, ok := m.subs[key]
	if ok {
		delete(m.subs, key)
	}
	n := len(m.subs)
	m.mu.Unlock()

	if ok {
		sub.stop()
		m.metrics.SetSubscriptions(m.name, n)
	}
}

// UnsubscribeAll cancels every live subscription synchronously.
func (m *Manager[T]) UnsubscribeAll() {
	m.mu.Lock()
	subs := m.subs
	m.subs = map[string]*subscription{}
	m.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
	m.metrics.SetSubscriptions(m.name, 0)
}

// Active reports whether key has a live subscription.
func (m *Manager[T]) Active(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subs[strings.TrimSpace(key)]
	return ok
}

// Len is the number of live subscriptions.
func (m *Manager[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *Manager[T]) remove(key string, sub *subscription) bool {
	m.mu.Lock()
	cur, ok := m.subs[key]
	if ok && cur == sub {
		delete(m.subs, key)
	}
	n := len(m.subs)
	m.mu.Unlock()

	if ok && cur == sub {
		m.metrics.SetSubscriptions(m.name, n)
		return true
	}
	return false
}
