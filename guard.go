package portalauth

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AccessGuard gates navigation into protected routes.
//
// It holds no state of its own: every decision reads the store at the moment
// of the call.
type AccessGuard struct {
	store *SessionStore
}

// NewAccessGuard returns a guard over store.
func NewAccessGuard(store *SessionStore) (*AccessGuard, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	return &AccessGuard{store: store}, nil
}

// Store returns the session store the guard reads.
func (g *AccessGuard) Store() *SessionStore {
	return g.store
}

// CanActivate decides with the store's own navigator.
func (g *AccessGuard) CanActivate(ctx context.Context) bool {
	return g.CanActivateWith(ctx, g.store.nav)
}

// CanActivateWith reports whether navigation into a protected route may
// proceed.
//
//   - Without durable storage the answer is false and nothing else happens.
//   - A logged-in view is allowed with no side effect.
//   - Otherwise nav is sent to the login route, any navigation error is
//     ignored, and the answer is false.
func (g *AccessGuard) CanActivateWith(ctx context.Context, nav Navigator) bool {
	s := g.store

	var start time.Time
	if s.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() {
			s.metrics.Observe(MetricGuardLatency, time.Since(start))
		}()
	}

	if !s.storage.Available() {
		s.metrics.Inc(MetricGuardUnavailable)
		s.emitAudit(ctx, auditEventGuardDenied, false, "", "", errNoStorage, nil)
		return false
	}

	if s.IsLoggedIn() {
		s.metrics.Inc(MetricGuardAllowed)
		return true
	}

	s.metrics.Inc(MetricGuardDenied)
	login := s.cfg.Routes.Login
	if nav == nil {
		nav = s.nav
	}
	if err := nav.Navigate(ctx, login); err != nil {
		s.logger.Debug("login redirect failed", zap.Error(err))
	}
	s.emitAudit(ctx, auditEventGuardDenied, false, "", login, errNotLoggedIn, nil)

	return false
}
