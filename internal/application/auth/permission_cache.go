// internal/application/auth/permission_cache.go
package auth

import (
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/user"
	"storefront/internal/infra/metrics"
)

// DefaultPermissionTTL bounds how long a role verdict may be reused.
const DefaultPermissionTTL = 5 * time.Minute

// Entry is one cached verdict for a (subject, required role) pair.
type Entry struct {
	SubjectID     string
	RequiredRole  user.Role
	HasPermission bool
	Snapshot      user.Record
	FetchedAt     time.Time
}

type cacheKey struct {
	subject string
	role    user.Role
}

// PermissionCache holds short-lived role verdicts. An entry older than the TTL is
// treated exactly like a missing one.
//
// Lookups and stores are independent: two concurrent misses for the same pair
// both go to the system of record and the later store wins.
type PermissionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[cacheKey]Entry
	metrics *metrics.Metrics
}

func NewPermissionCache(ttl time.Duration, now func() time.Time, m *metrics.Metrics) *PermissionCache {
	if ttl <= 0 {
		ttl = DefaultPermissionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &PermissionCache{
		ttl:     ttl,
		now:     now,
		entries: map[cacheKey]Entry{},
		metrics: m,
	}
}

// TTL returns the configured time-to-live.
func (c *PermissionCache) TTL() time.Duration { return c.ttl }

func (c *PermissionCache) fresh(e Entry) bool {
	return c.now().Sub(e.FetchedAt) < c.ttl
}

// Get returns the fresh entry for (subject, role). Expired entries are dropped.
func (c *PermissionCache) Get(subjectID string, role user.Role) (Entry, bool) {
	k := cacheKey{subject: strings.TrimSpace(subjectID), role: role}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		c.metrics.CacheEvent("miss")
		return Entry{}, false
	}
	if !c.fresh(e) {
		delete(c.entries, k)
		c.metrics.CacheEvent("expired")
		return Entry{}, false
	}
	c.metrics.CacheEvent("hit")
	return e, true
}

// Latest returns the most recently fetched fresh entry for subject, whatever its
// required role. Its snapshot carries the subject's role at fetch time.
func (c *PermissionCache) Latest(subjectID string) (Entry, bool) {
	subjectID = strings.TrimSpace(subjectID)

	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		best  Entry
		found bool
	)
	for k, e := range c.entries {
		if k.subject != subjectID {
			continue
		}
		if !c.fresh(e) {
			delete(c.entries, k)
			continue
		}
		if !found || e.FetchedAt.After(best.FetchedAt) {
			best, found = e, true
		}
	}
	return best, found
}

// Put stores e, stamping FetchedAt when it is zero.
func (c *PermissionCache) Put(e Entry) {
	e.SubjectID = strings.TrimSpace(e.SubjectID)
	if e.FetchedAt.IsZero() {
		e.FetchedAt = c.now()
	}

	c.mu.Lock()
	c.entries[cacheKey{subject: e.SubjectID, role: e.RequiredRole}] = e
	c.mu.Unlock()
}

// Invalidate drops every entry of subjectID, or the whole cache when subjectID is empty.
// It never blocks on I/O.
func (c *PermissionCache) Invalidate(subjectID string) {
	subjectID = strings.TrimSpace(subjectID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if subjectID == "" {
		c.entries = map[cacheKey]Entry{}
		c.metrics.CacheEvent("invalidate_all")
		return
	}
	for k := range c.entries {
		if k.subject == subjectID {
			delete(c.entries, k)
		}
	}
	c.metrics.CacheEvent("invalidate")
}

// Len is the number of stored entries, fresh or not.
func (c *PermissionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
