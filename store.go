package portalauth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrEthical07/portalauth/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenState is the value delivered to token observers.
type TokenState struct {
	Token    string
	LoggedIn bool
}

// SessionStore is the view-wide holder of the session token.
//
// The token lives in memory and in durable storage. The role and display name
// live in storage only and are read through on every call. Save and Clear are
// the only operations that write the persisted keys.
//
// A SessionStore is safe for concurrent use. It is created by [Builder.Build]
// and released with [SessionStore.Close].
type SessionStore struct {
	cfg     Config
	storage storage.Storage
	nav     Navigator
	logger  *zap.Logger
	audit   *auditDispatcher
	metrics *Metrics
	viewID  string

	mu       sync.RWMutex
	token    string
	hasToken bool

	obsMu     sync.Mutex
	observers map[uint64]func(TokenState)
	nextObs   uint64

	stopWatch context.CancelFunc
	watchDone chan struct{}
	closeOnce sync.Once
}

func newSessionStore(cfg Config, st storage.Storage, nav Navigator, logger *zap.Logger) *SessionStore {
	viewID := uuid.NewString()
	return &SessionStore{
		cfg:       cfg,
		storage:   st,
		nav:       nav,
		logger:    logger.With(zap.String("view", viewID)),
		viewID:    viewID,
		observers: make(map[uint64]func(TokenState)),
	}
}

// start registers the cross-view listener, then loads the persisted token.
// Subscribing first means a write landing between the two steps is either
// seen by the read or queued on the channel.
func (s *SessionStore) start() {
	ctx := context.Background()

	watchCtx, changes := s.subscribe(ctx)
	s.token, s.hasToken = s.read(ctx, s.cfg.Keys.Token)

	if changes != nil {
		s.watchDone = make(chan struct{})
		go s.watch(watchCtx, changes)
	}
}

func (s *SessionStore) subscribe(ctx context.Context) (context.Context, <-chan storage.Change) {
	if !s.cfg.Watch.Enabled || !s.storage.Available() {
		return nil, nil
	}
	watcher, ok := s.storage.(storage.Watcher)
	if !ok {
		return nil, nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	changes, err := watcher.Watch(watchCtx)
	if err != nil {
		cancel()
		s.logger.Warn("cross-view sync disabled", zap.Error(err))
		return nil, nil
	}

	s.stopWatch = cancel
	return watchCtx, changes
}

func (s *SessionStore) watch(ctx context.Context, changes <-chan storage.Change) {
	defer close(s.watchDone)

	for change := range changes {
		if change.Origin != "" && change.Origin == s.viewID {
			continue
		}
		if !s.relevant(change.Key) {
			continue
		}

		s.metrics.Inc(MetricExternalChange)
		if s.Refresh(ctx) {
			s.logger.Debug("session changed in another view", zap.String("key", change.Key))
			s.emitExternalAudit(ctx, change)
		}
	}
}

func (s *SessionStore) relevant(key string) bool {
	switch key {
	case "", s.cfg.Keys.Token, s.cfg.Keys.Role, s.cfg.Keys.Name:
		return true
	}
	return false
}

// ViewID identifies this store in change notifications.
func (s *SessionStore) ViewID() string {
	return s.viewID
}

// Config returns a copy of the configuration the store was built with.
func (s *SessionStore) Config() Config {
	return s.cfg
}

// Navigator returns the router the store navigates with.
func (s *SessionStore) Navigator() Navigator {
	return s.nav
}

// StorageAvailable reports whether durable storage exists in this
// environment.
func (s *SessionStore) StorageAvailable() bool {
	return s.storage.Available()
}

/*
====================================
TOKEN CELL
====================================
*/

// CurrentToken returns the in-memory token and whether one is set.
func (s *SessionStore) CurrentToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.hasToken
}

// IsLoggedIn reports whether a non-empty token is set.
func (s *SessionStore) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasToken && s.token != ""
}

// Subscribe registers fn to be called with the new state each time the
// in-memory token changes. The returned func unregisters fn.
//
// fn runs on the goroutine that changed the token and must not block.
func (s *SessionStore) Subscribe(fn func(TokenState)) func() {
	if fn == nil {
		return func() {}
	}

	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

// setToken updates the cell and notifies observers when the value changed.
func (s *SessionStore) setToken(token string, present bool) bool {
	if !present {
		token = ""
	}

	s.mu.Lock()
	changed := s.hasToken != present || s.token != token
	s.token = token
	s.hasToken = present
	s.mu.Unlock()

	if changed {
		s.notify(TokenState{Token: token, LoggedIn: present && token != ""})
	}
	return changed
}

func (s *SessionStore) notify(state TokenState) {
	s.obsMu.Lock()
	fns := make([]func(TokenState), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// Refresh re-reads the token from storage and reports whether the in-memory
// value changed. Calling it repeatedly is harmless.
func (s *SessionStore) Refresh(ctx context.Context) bool {
	token, ok := s.read(ctx, s.cfg.Keys.Token)
	return s.setToken(token, ok)
}

/*
====================================
PERSISTENCE
====================================
*/

// Save persists a session.
//
// The token is always written. role and name are written only when
// non-empty; an empty value keeps whatever was stored before. The in-memory
// token is updated before Save returns, so IsLoggedIn observes it at once.
//
// Save returns [ErrEmptyToken] for an empty token and writes nothing. When
// storage is unavailable the call is a silent no-op. Backend failures are
// wrapped in [ErrStorageWrite]; the in-memory token changes only if the token
// itself was written.
func (s *SessionStore) Save(ctx context.Context, token, role, name string) error {
	_, err := s.save(ctx, token, role, name)
	return err
}

// save reports whether the token is now in effect, so that OnAuthenticated
// can skip the redirect when nothing was saved.
func (s *SessionStore) save(ctx context.Context, token, role, name string) (bool, error) {
	if token == "" {
		s.metrics.Inc(MetricSessionSaveRejected)
		s.emitAudit(ctx, auditEventSessionSaveRejected, false, role, "", ErrEmptyToken, nil)
		return false, ErrEmptyToken
	}
	if !s.storage.Available() {
		s.metrics.Inc(MetricStorageSkipped)
		s.logger.Debug("save skipped, no durable storage")
		return true, nil
	}

	wctx := storage.WithOrigin(ctx, s.viewID)

	if err := s.storage.Set(wctx, s.cfg.Keys.Token, token); err != nil {
		s.storageFailure(ctx, "save token", s.cfg.Keys.Token, err)
		return false, fmt.Errorf("%w: %w: %s: %v", ErrSessionNotSaved, ErrStorageWrite, s.cfg.Keys.Token, err)
	}

	var errs []error
	if role != "" {
		if err := s.storage.Set(wctx, s.cfg.Keys.Role, role); err != nil {
			s.storageFailure(ctx, "save role", s.cfg.Keys.Role, err)
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrStorageWrite, s.cfg.Keys.Role, err))
		}
	}
	if name != "" {
		if err := s.storage.Set(wctx, s.cfg.Keys.Name, name); err != nil {
			s.storageFailure(ctx, "save name", s.cfg.Keys.Name, err)
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrStorageWrite, s.cfg.Keys.Name, err))
		}
	}

	s.setToken(token, true)

	s.metrics.Inc(MetricSessionSaved)
	s.logger.Debug("session saved",
		zap.String("role", role),
		zap.Bool("role_written", role != ""),
		zap.Bool("name_written", name != ""),
	)
	s.emitAudit(ctx, auditEventSessionSaved, true, role, "", nil, func() map[string]string {
		return map[string]string{
			"role_written": boolString(role != ""),
			"name_written": boolString(name != ""),
		}
	})

	return true, errors.Join(errs...)
}

// Clear removes the token, role and name from storage and unsets the
// in-memory token. Clearing an already cleared session is a no-op.
//
// Removal failures are joined and wrapped in [ErrStorageWrite]; the in-memory
// token is unset regardless, so the view never stays logged in after Clear.
func (s *SessionStore) Clear(ctx context.Context) error {
	if !s.storage.Available() {
		s.metrics.Inc(MetricStorageSkipped)
		return nil
	}

	wctx := storage.WithOrigin(ctx, s.viewID)

	var errs []error
	for _, key := range []string{s.cfg.Keys.Token, s.cfg.Keys.Role, s.cfg.Keys.Name} {
		if err := s.storage.Remove(wctx, key); err != nil {
			s.storageFailure(ctx, "clear", key, err)
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrStorageWrite, key, err))
		}
	}

	s.setToken("", false)

	s.metrics.Inc(MetricSessionCleared)
	s.logger.Debug("session cleared")
	s.emitAudit(ctx, auditEventSessionCleared, len(errs) == 0, "", "", errors.Join(errs...), nil)

	return errors.Join(errs...)
}

// StoredRole reads the role from storage. It is never cached, so values
// written by other views are visible immediately.
func (s *SessionStore) StoredRole(ctx context.Context) (string, bool) {
	return s.read(ctx, s.cfg.Keys.Role)
}

// StoredName reads the display name from storage.
func (s *SessionStore) StoredName(ctx context.Context) (string, bool) {
	return s.read(ctx, s.cfg.Keys.Name)
}

// IsAdminView reports whether the stored role is TPC, DEPT_HEAD or ADMIN.
//
// The token is not consulted: a role left behind by an expired session still
// counts until Clear removes it.
func (s *SessionStore) IsAdminView(ctx context.Context) bool {
	role, _ := s.StoredRole(ctx)
	return Role(role).AdminView()
}

// IsAdminOnly reports whether the stored role is exactly ADMIN.
func (s *SessionStore) IsAdminOnly(ctx context.Context) bool {
	role, _ := s.StoredRole(ctx)
	return Role(role).AdminOnly()
}

func (s *SessionStore) read(ctx context.Context, key string) (string, bool) {
	if !s.storage.Available() {
		return "", false
	}

	value, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		s.storageFailure(ctx, "read", key, err)
		return "", false
	}
	return value, ok
}

func (s *SessionStore) storageFailure(ctx context.Context, op, key string, err error) {
	s.metrics.Inc(MetricStorageFailure)
	s.logger.Warn("session storage failure",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
	s.emitAudit(ctx, auditEventStorageFailure, false, "", "", err, func() map[string]string {
		return map[string]string{"op": op, "key": key}
	})
}

/*
====================================
NAVIGATION
====================================
*/

// OnAuthenticated saves the session and navigates to the dashboard. When the
// navigation fails the store falls back to a hard redirect, so the user is
// never left on the login view.
//
// No navigation happens when the token was rejected ([ErrEmptyToken]) or could
// not be written ([ErrSessionNotSaved]). A failed role or name write still
// navigates and is returned afterwards.
func (s *SessionStore) OnAuthenticated(ctx context.Context, token, role, name string) error {
	saved, err := s.save(ctx, token, role, name)
	if !saved {
		return err
	}

	s.redirectToDashboard(ctx)
	return err
}

func (s *SessionStore) redirectToDashboard(ctx context.Context) {
	dashboard := s.cfg.Routes.Dashboard
	if err := s.nav.Navigate(ctx, dashboard); err != nil {
		s.metrics.Inc(MetricNavigateFallback)
		s.logger.Warn("navigation failed, hard redirect", zap.String("path", dashboard), zap.Error(err))
		s.emitAudit(ctx, auditEventNavigationFallback, false, "", dashboard, fmt.Errorf("%w: %v", errNavigation, err), nil)
		s.nav.HardRedirect(dashboard)
	}
}

// Logout clears the session and hard-redirects to the login view.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.metrics.Inc(MetricLogout)
	err := s.Clear(ctx)
	s.nav.HardRedirect(s.cfg.Routes.Login)
	return err
}

/*
====================================
LIFECYCLE
====================================
*/

// MetricsSnapshot returns the current counters.
func (s *SessionStore) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (s *SessionStore) AuditDropped() uint64 {
	return s.audit.Dropped()
}

// AuditDelivered returns the number of audit events handed to the sink.
func (s *SessionStore) AuditDelivered() uint64 {
	return s.audit.Delivered()
}

// Close stops the cross-view listener and flushes the audit dispatcher.
// The store keeps answering reads afterwards.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() {
		if s.stopWatch != nil {
			s.stopWatch()
			<-s.watchDone
		}
		s.audit.Close()
	})
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
