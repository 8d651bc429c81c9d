// internal/domain/permission/entity.go
package permission

import "storefront/internal/domain/user"

// Resource is a collection of the system of record guarded by the matrix.
type Resource string

const (
	ResourceProducts  Resource = "products"
	ResourceOrders    Resource = "orders"
	ResourceCarts     Resource = "carts"
	ResourceWishlists Resource = "wishlists"
	ResourceUsers     Resource = "users"
)

// Action is an operation on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ResourceValues returns all guarded resources.
func ResourceValues() []Resource {
	return []Resource{ResourceProducts, ResourceOrders, ResourceCarts, ResourceWishlists, ResourceUsers}
}

// ActionValues returns all actions.
func ActionValues() []Action {
	return []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}
}

// Matrix maps role -> resource -> allowed actions.
type Matrix map[user.Role]map[Resource]map[Action]struct{}

// Allows reports whether role may perform action on resource.
// Unknown roles and resources allow nothing.
func (m Matrix) Allows(role user.Role, resource Resource, action Action) bool {
	byResource, ok := m[role]
	if !ok {
		return false
	}
	actions, ok := byResource[resource]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// Label renders "resource.action" for error messages.
func Label(resource Resource, action Action) string {
	return string(resource) + "." + string(action)
}
