package cafe

// Comparators below must mirror the backend's canonical ordering for each
// list endpoint. Optimistic inserts re-sort with the same comparator, so any
// divergence shows up as a reorder when the reconciling refetch lands.

// TableLess orders open tables before closed ones, then by start hour, then
// by name to keep same-minute openings stable.
func TableLess(a, b Table) bool {
	if a.Open() != b.Open() {
		return a.Open()
	}
	if a.StartHour != b.StartHour {
		return a.StartHour < b.StartHour
	}
	return a.Name < b.Name
}

// UserLess orders users by name, case-sensitive.
func UserLess(a, b User) bool {
	return a.Name < b.Name
}

// GameLess orders catalog games by name, case-sensitive.
func GameLess(a, b Game) bool {
	return a.Name < b.Name
}

// MembershipLess orders memberships by name.
func MembershipLess(a, b Membership) bool {
	return a.Name < b.Name
}

// MenuCategoryLess orders categories by display order, then name.
func MenuCategoryLess(a, b MenuCategory) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.Name < b.Name
}

// MenuItemLess orders menu items by name.
func MenuItemLess(a, b MenuItem) bool {
	return a.Name < b.Name
}

// VisitLess orders visits by staff role, then user name.
func VisitLess(a, b Visit) bool {
	if a.User.Role != b.User.Role {
		return a.User.Role < b.User.Role
	}
	return a.User.Name < b.User.Name
}
