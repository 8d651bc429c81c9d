package realtime

import (
	"context"
	"strings"
	"sync"
)

// Hub is an in-process Source: writers Publish snapshots, listeners receive
// them in publish order. The in-memory system of record pushes through it.
type Hub[T any] struct {
	// Current, when set, supplies the first snapshot a new listener receives,
	// matching the initial-state delivery of a real document listener.
	Current func(key string) Snapshot[T]

	mu        sync.Mutex
	listeners map[string]map[*hubListener[T]]struct{}
	opened    map[string]int
}

type hubListener[T any] struct {
	ch   chan Snapshot[T]
	fail chan error
	done <-chan struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		listeners: map[string]map[*hubListener[T]]struct{}{},
		opened:    map[string]int{},
	}
}

// Listen implements Source.
func (h *Hub[T]) Listen(ctx context.Context, key string, deliver func(Snapshot[T])) error {
	key = strings.TrimSpace(key)
	l := &hubListener[T]{
		ch:   make(chan Snapshot[T], 64),
		fail: make(chan error, 1),
		done: ctx.Done(),
	}

	h.mu.Lock()
	if h.listeners[key] == nil {
		h.listeners[key] = map[*hubListener[T]]struct{}{}
	}
	h.listeners[key][l] = struct{}{}
	h.opened[key]++
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.listeners[key], l)
		if len(h.listeners[key]) == 0 {
			delete(h.listeners, key)
		}
		h.mu.Unlock()
	}()

	if h.Current != nil {
		deliver(h.Current(key))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-l.fail:
			return err
		case s := <-l.ch:
			deliver(s)
		}
	}
}

// Publish sends s to every live listener of key.
func (h *Hub[T]) Publish(key string, s Snapshot[T]) {
	key = strings.TrimSpace(key)
	s.Key = key
	for _, l := range h.snapshot(key) {
		select {
		case l.ch <- s:
		case <-l.done:
		}
	}
}

// Fail ends every listener of key with err.
func (h *Hub[T]) Fail(key string, err error) {
	for _, l := range h.snapshot(strings.TrimSpace(key)) {
		select {
		case l.fail <- err:
		default:
		}
	}
}

// Listeners is the number of live listeners for key.
func (h *Hub[T]) Listeners(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[strings.TrimSpace(key)])
}

// Opened counts every listener ever opened for key.
func (h *Hub[T]) Opened(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opened[strings.TrimSpace(key)]
}

func (h *Hub[T]) snapshot(key string) []*hubListener[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*hubListener[T], 0, len(h.listeners[key]))
	for l := range h.listeners[key] {
		out = append(out, l)
	}
	return out
}
