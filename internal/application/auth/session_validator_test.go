package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/common"
	"storefront/internal/domain/permission"
	"storefront/internal/domain/user"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type countingUsers struct {
	mu    sync.Mutex
	recs  map[string]user.Record
	reads int
	err   error
}

func (u *countingUsers) GetByID(_ context.Context, uid string) (user.Record, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.reads++
	if u.err != nil {
		return user.Record{}, u.err
	}
	r, ok := u.recs[uid]
	if !ok {
		return user.Record{}, common.ErrNotFound
	}
	return r, nil
}

func (u *countingUsers) set(r user.Record) {
	u.mu.Lock()
	u.recs[r.UID] = r
	u.mu.Unlock()
}

func (u *countingUsers) Reads() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.reads
}

func newValidator(t *testing.T, recs ...user.Record) (*SessionValidator, *countingUsers, *fakeClock) {
	t.Helper()
	users := &countingUsers{recs: map[string]user.Record{}}
	for _, r := range recs {
		users.set(r)
	}
	clock := newFakeClock()
	cache := NewPermissionCache(5*time.Minute, clock.Now, nil)
	v := NewSessionValidator(users, cache, permission.Default, nil).WithClock(clock.Now)
	return v, users, clock
}

func TestCheckRole_TTL(t *testing.T) {
	v, users, clock := newValidator(t, user.Record{UID: "admin-1", Role: user.RoleAdmin})
	ctx := context.Background()

	_, err := v.CheckRole(ctx, "admin-1", user.RoleAdmin)
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)
	_, err = v.CheckRole(ctx, "admin-1", user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, users.Reads(), "two checks within the TTL issue one read")

	clock.Advance(2 * time.Minute)
	_, err = v.CheckRole(ctx, "admin-1", user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 2, users.Reads(), "a check after the TTL re-reads")
}

func TestCheckRole_ExactTTLBoundaryIsMiss(t *testing.T) {
	v, users, clock := newValidator(t, user.Record{UID: "u1", Role: user.RoleCustomer})
	ctx := context.Background()

	_, err := v.CheckRole(ctx, "u1", user.RoleCustomer)
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	_, err = v.CheckRole(ctx, "u1", user.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, 2, users.Reads())
}

func TestInvalidate_ForcesFreshRead(t *testing.T) {
	v, users, _ := newValidator(t, user.Record{UID: "u1", Role: user.RoleAdmin})
	ctx := context.Background()

	_, err := v.CheckRole(ctx, "u1", user.RoleAdmin)
	require.NoError(t, err)

	// demotion arrives through the system of record
	users.set(user.Record{UID: "u1", Role: user.RoleCustomer})
	v.Invalidate("u1")

	_, err = v.CheckRole(ctx, "u1", user.RoleAdmin)
	var pd *common.PermissionDeniedError
	require.ErrorAs(t, err, &pd)
	assert.Equal(t, "admin", pd.Required)
	assert.Equal(t, "customer", pd.Actual)
	assert.Equal(t, 2, users.Reads())
}

func TestInvalidate_AllSubjects(t *testing.T) {
	v, users, _ := newValidator(t,
		user.Record{UID: "a", Role: user.RoleAdmin},
		user.Record{UID: "b", Role: user.RoleCustomer},
	)
	ctx := context.Background()

	_, _ = v.CheckRole(ctx, "a", user.RoleAdmin)
	_, _ = v.CheckRole(ctx, "b", user.RoleCustomer)
	require.Equal(t, 2, v.Cache().Len())

	v.Invalidate("")
	assert.Equal(t, 0, v.Cache().Len())

	_, _ = v.CheckRole(ctx, "a", user.RoleAdmin)
	assert.Equal(t, 3, users.Reads())
}

func TestCheckRole_CachedDenialIsAuthoritative(t *testing.T) {
	v, users, _ := newValidator(t, user.Record{UID: "c1", Role: user.RoleCustomer})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := v.CheckRole(ctx, "c1", user.RoleAdmin)
		var pd *common.PermissionDeniedError
		require.ErrorAs(t, err, &pd)
		assert.Equal(t, "admin", pd.Required)
		assert.Equal(t, "customer", pd.Actual)
	}
	assert.Equal(t, 1, users.Reads())
}

func TestCheckRole_DifferentRequiredRoleIsSeparateEntry(t *testing.T) {
	v, _, _ := newValidator(t, user.Record{UID: "c1", Role: user.RoleCustomer})
	ctx := context.Background()

	_, err := v.CheckRole(ctx, "c1", user.RoleCustomer)
	require.NoError(t, err)

	_, err = v.CheckRole(ctx, "c1", user.RoleAdmin)
	var pd *common.PermissionDeniedError
	require.ErrorAs(t, err, &pd)
	assert.Equal(t, &common.PermissionDeniedError{Required: "admin", Actual: "customer"}, pd)
}

func TestCheckRole_AccountFlags(t *testing.T) {
	v, _, _ := newValidator(t,
		user.Record{UID: "s", Role: user.RoleCustomer, Suspended: true},
		user.Record{UID: "d", Role: user.RoleCustomer, Deactivated: true},
	)
	ctx := context.Background()

	_, err := v.CheckRole(ctx, "s", user.RoleCustomer)
	assert.ErrorIs(t, err, common.ErrAccountSuspended)

	_, err = v.CheckRole(ctx, "d", user.RoleCustomer)
	assert.ErrorIs(t, err, common.ErrAccountDeactivated)

	assert.Equal(t, 0, v.Cache().Len(), "flagged accounts are never cached")
}

func TestCheckRole_Unauthenticated(t *testing.T) {
	v, users, _ := newValidator(t)
	ctx := context.Background()

	_, err := v.CheckRole(ctx, "  ", user.RoleCustomer)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = v.CheckRole(ctx, "ghost", user.RoleCustomer)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Equal(t, 1, users.Reads())
}

func TestCheckRole_ReadFailurePropagates(t *testing.T) {
	v, users, _ := newValidator(t)
	users.err = errors.New("unavailable")

	_, err := v.CheckRole(context.Background(), "u1", user.RoleCustomer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestCheckPermission_Matrix(t *testing.T) {
	cases := []struct {
		role     user.Role
		resource permission.Resource
		action   permission.Action
		allowed  bool
	}{
		{user.RoleCustomer, permission.ResourceProducts, permission.ActionRead, true},
		{user.RoleCustomer, permission.ResourceProducts, permission.ActionCreate, false},
		{user.RoleCustomer, permission.ResourceOrders, permission.ActionCreate, true},
		{user.RoleCustomer, permission.ResourceOrders, permission.ActionUpdate, false},
		{user.RoleCustomer, permission.ResourceCarts, permission.ActionUpdate, true},
		{user.RoleEditor, permission.ResourceProducts, permission.ActionUpdate, false},
		{user.RoleSupport, permission.ResourceOrders, permission.ActionUpdate, false},
		{user.RoleAdmin, permission.ResourceProducts, permission.ActionCreate, true},
		{user.RoleAdmin, permission.ResourceProducts, permission.ActionDelete, true},
		{user.RoleAdmin, permission.ResourceOrders, permission.ActionUpdate, true},
		{user.RoleAdmin, permission.ResourceOrders, permission.ActionDelete, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.role)+"/"+permission.Label(tc.resource, tc.action), func(t *testing.T) {
			v, _, _ := newValidator(t, user.Record{UID: "u", Role: tc.role})
			rec, err := v.CheckPermission(context.Background(), "u", tc.action, tc.resource)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.role, rec.Role)
				return
			}
			var pd *common.PermissionDeniedError
			require.ErrorAs(t, err, &pd)
			assert.Equal(t, permission.Label(tc.resource, tc.action), pd.Required)
			assert.Equal(t, string(tc.role), pd.Actual)
		})
	}
}

func TestCheckPermission_UsesCachedOwnRole(t *testing.T) {
	v, users, _ := newValidator(t, user.Record{UID: "c1", Role: user.RoleCustomer})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := v.CheckPermission(ctx, "c1", permission.ActionRead, permission.ResourceProducts)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, users.Reads())
}

func TestValidateSessionFreshness(t *testing.T) {
	v, _, clock := newValidator(t)
	now := clock.Now()

	cases := []struct {
		name    string
		ctx     context.Context
		subject string
		wantErr error
	}{
		{"no token", context.Background(), "u1", common.ErrUnauthenticated},
		{"other subject", WithToken(context.Background(), TokenInfo{UID: "u2", AuthTime: now}), "u1", common.ErrUnauthenticated},
		{"fresh", WithToken(context.Background(), TokenInfo{UID: "u1", AuthTime: now.Add(-time.Minute)}), "u1", nil},
		{"too old", WithToken(context.Background(), TokenInfo{UID: "u1", AuthTime: now.Add(-10 * time.Minute)}), "u1", common.ErrSessionExpired},
		{"token expired", WithToken(context.Background(), TokenInfo{UID: "u1", AuthTime: now, ExpiresAt: now.Add(-time.Second)}), "u1", common.ErrSessionExpired},
		{"empty subject", context.Background(), "", common.ErrUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := v.ValidateSessionFreshness(tc.ctx, tc.subject, 5*time.Minute)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.subject, tok.UID)
		})
	}
}
