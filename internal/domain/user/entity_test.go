package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Normalize(t *testing.T) {
	r := Record{UID: " u1 ", Email: " a@b.c ", Role: " Admin "}.Normalize()
	assert.Equal(t, "u1", r.UID)
	assert.Equal(t, "a@b.c", r.Email)
	assert.Equal(t, RoleAdmin, r.Role)
	assert.True(t, IsValidRole(r.Role))
	assert.False(t, IsValidRole("owner"))
}

func TestRecord_AccessChanged(t *testing.T) {
	base := Record{UID: "u1", Role: RoleCustomer}
	assert.False(t, base.AccessChanged(Record{UID: "u1", Role: RoleCustomer, DisplayName: "new"}))
	assert.True(t, base.AccessChanged(Record{UID: "u1", Role: RoleAdmin}))
	assert.True(t, base.AccessChanged(Record{UID: "u1", Role: RoleCustomer, Suspended: true}))
	assert.True(t, base.AccessChanged(Record{UID: "u1", Role: RoleCustomer, Deactivated: true}))
}

func TestCanSelfRegisterAs(t *testing.T) {
	assert.True(t, CanSelfRegisterAs(RoleCustomer))
	assert.True(t, CanSelfRegisterAs(RoleAdmin))
	assert.False(t, CanSelfRegisterAs(RoleEditor))
	assert.False(t, CanSelfRegisterAs(RoleSupport))
}
