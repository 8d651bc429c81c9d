package permission

import "storefront/internal/domain/user"

func actions(as ...Action) map[Action]struct{} {
	out := make(map[Action]struct{}, len(as))
	for _, a := range as {
		out[a] = struct{}{}
	}
	return out
}

// ownData covers the collections every signed-in subject manages for itself
// (carts/{uid}, wishlists/{uid}, users/{uid}). Ownership is checked by the caller.
func ownData() map[Resource]map[Action]struct{} {
	return map[Resource]map[Action]struct{}{
		ResourceCarts:     actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete),
		ResourceWishlists: actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete),
		ResourceUsers:     actions(ActionRead, ActionUpdate),
	}
}

func with(base map[Resource]map[Action]struct{}, r Resource, a map[Action]struct{}) map[Resource]map[Action]struct{} {
	base[r] = a
	return base
}

// Default is the static role matrix mirrored from the system of record's rules:
//   - products are world-readable; only admin writes them
//   - orders are read/created by their owner or an admin; status updates are admin only
var Default = Matrix{
	user.RoleCustomer: with(with(ownData(),
		ResourceProducts, actions(ActionRead)),
		ResourceOrders, actions(ActionRead, ActionCreate)),

	user.RoleEditor: with(with(ownData(),
		ResourceProducts, actions(ActionRead)),
		ResourceOrders, actions(ActionRead, ActionCreate)),

	user.RoleSupport: with(with(ownData(),
		ResourceProducts, actions(ActionRead)),
		ResourceOrders, actions(ActionRead, ActionCreate)),

	user.RoleAdmin: with(with(ownData(),
		ResourceProducts, actions(ActionRead, ActionCreate, ActionUpdate, ActionDelete)),
		ResourceOrders, actions(ActionRead, ActionCreate, ActionUpdate)),
}

// CanReadAnyOrder reports whether a role may read orders it does not own.
func CanReadAnyOrder(role user.Role) bool {
	return role == user.RoleAdmin
}
