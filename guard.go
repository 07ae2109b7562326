package crispsession

import "strings"

// Route paths known to the guard. Anything else redirects to the landing
// page.
const (
	RouteLanding         = "/"
	RouteConstruction    = "/construction"
	RouteLogin           = "/login"
	RouteRegister        = "/register"
	RouteForgotPassword  = "/forgot-password"
	RouteResetPassword   = "/reset-password"
	RouteDashboard       = "/dashboard"
	RouteThreatFeeds     = "/threat-feeds"
	RouteIoCManagement   = "/ioc-management"
	RouteTTPAnalysis     = "/ttp-analysis"
	RouteNotifications   = "/notifications"
	RouteReports         = "/reports"
	RouteProfile         = "/profile"
	RouteHelp            = "/help"
	RouteUserManagement  = "/user-management"
	RouteTrustManagement = "/trust-management"
	RouteAssets          = "/assets"
	RouteAssetAlerts     = "/asset-alerts"
)

// RouteDecision is the guard's verdict for one navigation. When Allowed is
// false, Redirect holds the replacement path.
type RouteDecision struct {
	Allowed  bool
	Redirect string
}

func allowRoute() RouteDecision            { return RouteDecision{Allowed: true} }
func redirectTo(path string) RouteDecision { return RouteDecision{Redirect: path} }

// Guard access classes. A path appears in exactly one set.
var (
	// openRoutes are reachable in any authentication state.
	openRoutes = map[string]struct{}{
		RouteLanding:      {},
		RouteConstruction: {},
	}
	// guestRoutes are reachable only while unauthenticated; authenticated
	// users are sent to the dashboard instead.
	guestRoutes = map[string]struct{}{
		RouteLogin:          {},
		RouteRegister:       {},
		RouteForgotPassword: {},
		RouteResetPassword:  {},
	}
	// memberRoutes require authentication only.
	memberRoutes = map[string]struct{}{
		RouteDashboard:     {},
		RouteThreatFeeds:   {},
		RouteIoCManagement: {},
		RouteTTPAnalysis:   {},
		RouteNotifications: {},
		RouteReports:       {},
		RouteProfile:       {},
		RouteHelp:          {},
	}
	// adminRoutes additionally require the derived admin flag.
	adminRoutes = map[string]struct{}{
		RouteUserManagement:  {},
		RouteTrustManagement: {},
	}
	// publisherRoutes accept publishers and admins.
	publisherRoutes = map[string]struct{}{
		RouteAssets:      {},
		RouteAssetAlerts: {},
	}
)

// ResolveRoute decides whether session may render path. It is a pure
// function: no state is read beyond its arguments and it is safe to
// re-evaluate on every navigation.
//
// Unauthenticated users hitting a protected path go to /login; authenticated
// users hitting a guest-only path go to /dashboard; authenticated users
// lacking the required role go to /dashboard (they are authorized to be in
// the app, merely not on that page); unknown paths go to /.
func ResolveRoute(path string, session Session) RouteDecision {
	path = normalizePath(path)

	if _, ok := openRoutes[path]; ok {
		return allowRoute()
	}

	if _, ok := guestRoutes[path]; ok {
		if session.Authenticated {
			return redirectTo(RouteDashboard)
		}
		return allowRoute()
	}

	if _, ok := memberRoutes[path]; ok {
		if !session.Authenticated {
			return redirectTo(RouteLogin)
		}
		return allowRoute()
	}

	if _, ok := adminRoutes[path]; ok {
		if !session.Authenticated {
			return redirectTo(RouteLogin)
		}
		if !session.User.IsAdmin() {
			return redirectTo(RouteDashboard)
		}
		return allowRoute()
	}

	if _, ok := publisherRoutes[path]; ok {
		if !session.Authenticated {
			return redirectTo(RouteLogin)
		}
		if !session.User.IsPublisher() {
			return redirectTo(RouteDashboard)
		}
		return allowRoute()
	}

	return redirectTo(RouteLanding)
}

func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return RouteLanding
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return RouteLanding
		}
	}
	return path
}
