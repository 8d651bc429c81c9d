package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront/internal/domain/user"
)

func TestDefault_Allows(t *testing.T) {
	nonAdmin := map[Resource][]Action{
		ResourceProducts:  {ActionRead},
		ResourceOrders:    {ActionRead, ActionCreate},
		ResourceCarts:     {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
		ResourceWishlists: {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
		ResourceUsers:     {ActionRead, ActionUpdate},
	}
	admin := map[Resource][]Action{
		ResourceProducts:  {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
		ResourceOrders:    {ActionRead, ActionCreate, ActionUpdate},
		ResourceCarts:     {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
		ResourceWishlists: {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
		ResourceUsers:     {ActionRead, ActionUpdate},
	}
	want := map[user.Role]map[Resource][]Action{
		user.RoleCustomer: nonAdmin,
		user.RoleEditor:   nonAdmin,
		user.RoleSupport:  nonAdmin,
		user.RoleAdmin:    admin,
	}

	for _, role := range user.RoleValues() {
		for _, res := range ResourceValues() {
			for _, act := range ActionValues() {
				expected := containsAction(want[role][res], act)
				assert.Equal(t, expected, Default.Allows(role, res, act),
					"%s %s", role, Label(res, act))
			}
		}
	}
}

func containsAction(as []Action, a Action) bool {
	for _, x := range as {
		if x == a {
			return true
		}
	}
	return false
}

func TestDefault_UnknownInputs(t *testing.T) {
	assert.False(t, Default.Allows("guest", ResourceProducts, ActionRead))
	assert.False(t, Default.Allows("", ResourceCarts, ActionRead))
	assert.False(t, Default.Allows(user.RoleAdmin, "reviews", ActionRead))
	assert.False(t, Default.Allows(user.RoleAdmin, ResourceOrders, ActionDelete))
	assert.False(t, Matrix(nil).Allows(user.RoleAdmin, ResourceProducts, ActionRead))
}

func TestCanReadAnyOrder(t *testing.T) {
	assert.True(t, CanReadAnyOrder(user.RoleAdmin))
	for _, r := range []user.Role{user.RoleCustomer, user.RoleEditor, user.RoleSupport, "guest"} {
		assert.False(t, CanReadAnyOrder(r), string(r))
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "products.create", Label(ResourceProducts, ActionCreate))
}
