// Package access holds the pure route-access rules of the marketplace: which
// session states may enter which routes, where denied users are pointed, and
// where settled sessions land. It has no transport or storage concerns.
package access

import "github.com/procurehub/ui-api/internal/domain/auth"

// Canonical application routes.
const (
	RouteRoot              = "/"
	RouteLanding           = "/landing"
	RouteSignIn            = "/auth"
	RouteDashboard         = "/dashboard"
	RouteClientDashboard   = "/client-dashboard"
	RouteVendorDashboard   = "/vendor-dashboard"
	RouteSupplierDashboard = "/supplier-dashboard"
	RouteAdmin             = "/admin"
	RouteAdminDashboard    = "/admin/dashboard"
	RouteKYCIntake         = "/kyc"
	RouteKYCResubmit       = "/kyc/resubmit"
)

// RouteRequirement declares what a route demands of the session.
// Empty AllowedRoles with RequiresAuth means any authenticated user.
type RouteRequirement struct {
	RequiresAuth bool
	AllowedRoles []auth.Role
}

// Allows reports whether the requirement admits the given role.
func (r RouteRequirement) Allows(role auth.Role) bool {
	if len(r.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Public is the requirement for routes anyone may enter.
func Public() RouteRequirement { return RouteRequirement{} }

// Authenticated is the requirement for routes open to any signed-in user.
func Authenticated() RouteRequirement { return RouteRequirement{RequiresAuth: true} }

// Roles is the requirement for routes restricted to the given roles.
func Roles(roles ...auth.Role) RouteRequirement {
	return RouteRequirement{RequiresAuth: true, AllowedRoles: roles}
}

// routeRequirements is the static requirement table for application routes.
var routeRequirements = map[string]RouteRequirement{
	RouteRoot:              Public(),
	RouteLanding:           Public(),
	RouteSignIn:            Public(),
	RouteDashboard:         Authenticated(),
	RouteClientDashboard:   Roles(auth.RoleClient),
	RouteVendorDashboard:   Roles(auth.RoleVendor),
	RouteSupplierDashboard: Roles(auth.RoleVendor),
	RouteAdmin:             Roles(auth.RoleAdmin),
	RouteAdminDashboard:    Roles(auth.RoleAdmin),
	RouteKYCIntake:         Roles(auth.RoleClient),
	RouteKYCResubmit:       Roles(auth.RoleClient),
}

// RequirementFor returns the declared requirement for a route path. Unknown
// paths default to requiring authentication, so a forgotten table entry fails
// toward the safe side.
func RequirementFor(path string) RouteRequirement {
	if req, ok := routeRequirements[path]; ok {
		return req
	}
	return Authenticated()
}

// DefaultHomeRoute is the per-role home suggested to users denied a route
// their role cannot enter.
func DefaultHomeRoute(role auth.Role) string {
	switch role {
	case auth.RoleClient:
		return RouteClientDashboard
	case auth.RoleVendor:
		return RouteSupplierDashboard
	case auth.RoleAdmin:
		return RouteAdmin
	default:
		return RouteRoot
	}
}

// LandingRoute is where the redirect policy sends a settled, verified-or-
// exempt session of the given role.
func LandingRoute(role auth.Role) string {
	switch role {
	case auth.RoleAdmin:
		return RouteAdminDashboard
	case auth.RoleVendor:
		return RouteVendorDashboard
	default:
		return RouteDashboard
	}
}
