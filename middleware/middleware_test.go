package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/portalauth"
	"github.com/MrEthical07/portalauth/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStore(t *testing.T, st storage.Storage) *portalauth.SessionStore {
	t.Helper()

	s, err := portalauth.New().
		WithStorage(st).
		WithLogger(zaptest.NewLogger(t)).
		Build()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func newGuard(t *testing.T, s *portalauth.SessionStore) *portalauth.AccessGuard {
	t.Helper()
	g, err := portalauth.NewAccessGuard(s)
	require.NoError(t, err)
	return g
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			http.Error(w, "no session", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sess.Role + ":" + sess.Name))
	})
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGuardRedirectsToLogin(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	h := Guard(newGuard(t, s))(okHandler())

	rec := serve(h, "/dashboard")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGuardAdmitsLoggedInView(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	require.NoError(t, s.Save(context.Background(), "tok", "TPC", "Asha"))
	h := Guard(newGuard(t, s))(okHandler())

	rec := serve(h, "/dashboard")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TPC:Asha", rec.Body.String())
}

func TestGuardWithoutStorageIsUnauthorized(t *testing.T) {
	s := newStore(t, storage.Null{})
	h := Guard(newGuard(t, s))(okHandler())

	rec := serve(h, "/dashboard")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestGuardNil(t *testing.T) {
	rec := serve(Guard(nil)(okHandler()), "/dashboard")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGates(t *testing.T) {
	tests := []struct {
		role      string
		adminView int
		adminOnly int
	}{
		{role: "STUDENT", adminView: http.StatusForbidden, adminOnly: http.StatusForbidden},
		{role: "DEPT_HEAD", adminView: http.StatusOK, adminOnly: http.StatusForbidden},
		{role: "ADMIN", adminView: http.StatusOK, adminOnly: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			s := newStore(t, storage.NewMemory())
			require.NoError(t, s.Save(context.Background(), "tok", tt.role, ""))
			guard := Guard(newGuard(t, s))

			view := guard(RequireAdminView(s)(okHandler()))
			only := guard(RequireAdminOnly(s)(okHandler()))

			assert.Equal(t, tt.adminView, serve(view, "/dashboard/reports").Code)
			assert.Equal(t, tt.adminOnly, serve(only, "/dashboard/user-management").Code)
		})
	}
}

func TestRequireRoute(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	require.NoError(t, s.Save(context.Background(), "tok", "STUDENT", ""))
	guard := Guard(newGuard(t, s))

	for _, route := range portalauth.DashboardRoutes {
		rec := serve(guard(RequireRoute(s, route)(okHandler())), route.Path)
		if route.Access == portalauth.AccessAny {
			assert.Equal(t, http.StatusOK, rec.Code, route.Path)
		} else {
			assert.Equal(t, http.StatusForbidden, rec.Code, route.Path)
		}
	}
}

func TestRedirectNavigatorWritesOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	nav := NewRedirectNavigator(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, nav.Navigate(context.Background(), "/dashboard"))
	nav.HardRedirect("/login")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}
