package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/portalauth"
)

// RequireAdminView rejects the request with 403 unless the stored role grants
// the admin view. Mount it behind [Guard].
func RequireAdminView(store *portalauth.SessionStore) func(http.Handler) http.Handler {
	return requireRole(store, (*portalauth.SessionStore).IsAdminView)
}

// RequireAdminOnly rejects the request with 403 unless the stored role is
// ADMIN.
func RequireAdminOnly(store *portalauth.SessionStore) func(http.Handler) http.Handler {
	return requireRole(store, (*portalauth.SessionStore).IsAdminOnly)
}

// RequireRoute applies the access class of route: [RequireAdminView],
// [RequireAdminOnly] or nothing.
func RequireRoute(store *portalauth.SessionStore, route portalauth.Route) func(http.Handler) http.Handler {
	switch route.Access {
	case portalauth.AccessAdminOnly:
		return RequireAdminOnly(store)
	case portalauth.AccessAdminView:
		return RequireAdminView(store)
	default:
		return func(next http.Handler) http.Handler { return next }
	}
}

func requireRole(store *portalauth.SessionStore, allowed func(*portalauth.SessionStore, context.Context) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || !allowed(store, r.Context()) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
