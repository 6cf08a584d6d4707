package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/portalauth"
)

type sessionContextKey struct{}

// Session is what a guarded handler learns about the view's session.
type Session struct {
	Token string
	Role  string
	Name  string
}

// SessionFromContext returns the session injected by [Guard].
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(Session)
	return s, ok
}

// redirectNavigator turns guard navigation into an HTTP redirect on one
// request. Only the first navigation is written.
type redirectNavigator struct {
	w       http.ResponseWriter
	r       *http.Request
	written bool
}

func (n *redirectNavigator) Navigate(_ context.Context, path string) error {
	n.redirect(path, http.StatusSeeOther)
	return nil
}

func (n *redirectNavigator) HardRedirect(path string) {
	n.redirect(path, http.StatusFound)
}

func (n *redirectNavigator) redirect(path string, code int) {
	if n.written {
		return
	}
	n.written = true
	http.Redirect(n.w, n.r, path, code)
}

// NewRedirectNavigator returns a [portalauth.Navigator] that answers r with
// a redirect: 303 for Navigate, 302 for HardRedirect.
func NewRedirectNavigator(w http.ResponseWriter, r *http.Request) portalauth.Navigator {
	return &redirectNavigator{w: w, r: r}
}

// Guard admits the request when the view is logged in and redirects to the
// login route otherwise. Without durable storage nothing is redirected and
// the request is answered 401.
func Guard(guard *portalauth.AccessGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			nav := &redirectNavigator{w: w, r: r}
			if !guard.CanActivateWith(r.Context(), nav) {
				if !nav.written {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}

			store := guard.Store()
			token, _ := store.CurrentToken()
			role, _ := store.StoredRole(r.Context())
			name, _ := store.StoredName(r.Context())

			ctx := context.WithValue(r.Context(), sessionContextKey{}, Session{
				Token: token,
				Role:  role,
				Name:  name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
