package domain

// IsStaff reports whether role may operate the canteen (progress orders, view all orders, stats).
func IsStaff(role Role) bool {
	return role == RoleCanteenStaff || role == RoleAdmin
}

// CanViewOrder allows the owner and canteen operators.
func CanViewOrder(p Principal, o *Order) bool {
	return IsStaff(p.Role) || p.UserID == o.UserID
}

// CanRequestStatus is the pre-check made before the order is loaded: anyone may ask to
// cancel, only operators may ask for anything else.
func CanRequestStatus(p Principal, next OrderStatus) bool {
	return IsStaff(p.Role) || next == StatusCancelled
}

// CanChangeStatus decides whether p may move o to next. Operators may apply any
// transition; owners may only cancel their own order.
func CanChangeStatus(p Principal, o *Order, next OrderStatus) bool {
	if IsStaff(p.Role) {
		return true
	}
	return next == StatusCancelled && p.UserID == o.UserID
}

func CanViewStats(p Principal) bool { return IsStaff(p.Role) }

func CanManageCatalog(p Principal) bool { return IsStaff(p.Role) }
