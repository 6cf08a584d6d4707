package portalauth

import "context"

// Access is the minimum role class needed to see a dashboard route.
type Access uint8

const (
	// AccessAny routes are visible to every logged-in user.
	AccessAny Access = iota
	// AccessAdminView routes need TPC, DEPT_HEAD or ADMIN.
	AccessAdminView
	// AccessAdminOnly routes need ADMIN.
	AccessAdminOnly
)

// Route is one entry of the dashboard navigation menu.
type Route struct {
	Path   string
	Title  string
	Access Access
}

// DashboardRoutes is the navigation menu of the protected area, in display
// order.
var DashboardRoutes = []Route{
	{Path: "/dashboard", Title: "Dashboard", Access: AccessAny},
	{Path: "/dashboard/analytics", Title: "Analytics", Access: AccessAny},
	{Path: "/dashboard/placements", Title: "Placements", Access: AccessAny},
	{Path: "/dashboard/manage-candidates", Title: "Manage Candidates", Access: AccessAdminView},
	{Path: "/dashboard/reports", Title: "Reports", Access: AccessAdminView},
	{Path: "/dashboard/user-management", Title: "User Management", Access: AccessAdminOnly},
}

// RouteFor returns the dashboard route registered at path.
func RouteFor(path string) (Route, bool) {
	for _, r := range DashboardRoutes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Allows reports whether role may see r.
func (r Route) Allows(role Role) bool {
	switch r.Access {
	case AccessAdminOnly:
		return role.AdminOnly()
	case AccessAdminView:
		return role.AdminView()
	default:
		return true
	}
}

// VisibleRoutes returns the dashboard routes the stored role may see. Role
// predicates read storage once for the whole menu.
func (s *SessionStore) VisibleRoutes(ctx context.Context) []Route {
	role, _ := s.StoredRole(ctx)

	out := make([]Route, 0, len(DashboardRoutes))
	for _, r := range DashboardRoutes {
		if r.Allows(Role(role)) {
			out = append(out, r)
		}
	}
	return out
}
