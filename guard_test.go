package portalauth

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/portalauth/storage"
)

func newTestGuard(t *testing.T, s *SessionStore) *AccessGuard {
	t.Helper()
	g, err := NewAccessGuard(s)
	if err != nil {
		t.Fatalf("NewAccessGuard failed: %v", err)
	}
	return g
}

func TestGuardDeniesWithoutSession(t *testing.T) {
	nav := &recordingNavigator{}
	s := newTestStore(t, storage.NewMemory(), nav)
	g := newTestGuard(t, s)

	if g.CanActivate(context.Background()) {
		t.Fatal("expected guard to deny")
	}

	calls := nav.Calls()
	if len(calls) != 1 || calls[0] != (navCall{path: "/login"}) {
		t.Fatalf("expected redirect to /login, got %+v", calls)
	}
	if got := s.metrics.Value(MetricGuardDenied); got != 1 {
		t.Fatalf("expected 1 denial, got %d", got)
	}
}

func TestGuardAllowsWithSession(t *testing.T) {
	nav := &recordingNavigator{}
	s := newTestStore(t, storage.NewMemory(), nav)
	g := newTestGuard(t, s)

	if err := s.Save(context.Background(), "tok123", "STUDENT", ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !g.CanActivate(context.Background()) {
		t.Fatal("expected guard to allow")
	}
	if calls := nav.Calls(); len(calls) != 0 {
		t.Fatalf("expected no navigation, got %+v", calls)
	}
}

func TestGuardIgnoresNavigationError(t *testing.T) {
	nav := &recordingNavigator{navigateErr: errors.New("cancelled")}
	s := newTestStore(t, storage.NewMemory(), nav)
	g := newTestGuard(t, s)

	if g.CanActivate(context.Background()) {
		t.Fatal("expected guard to deny")
	}
	for _, c := range nav.Calls() {
		if c.hard {
			t.Fatalf("guard must not hard redirect, got %+v", c)
		}
	}
}

func TestGuardDeniesWithoutStorage(t *testing.T) {
	nav := &recordingNavigator{}
	s := newTestStore(t, storage.Null{}, nav)
	g := newTestGuard(t, s)

	if g.CanActivate(context.Background()) {
		t.Fatal("expected guard to deny without storage")
	}
	if calls := nav.Calls(); len(calls) != 0 {
		t.Fatalf("expected no redirect without storage, got %+v", calls)
	}
	if got := s.metrics.Value(MetricGuardUnavailable); got != 1 {
		t.Fatalf("expected 1 unavailable denial, got %d", got)
	}
}

func TestGuardReadsStateAtEachCall(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory(), nil)
	g := newTestGuard(t, s)

	steps := []struct {
		action func()
		want   bool
	}{
		{action: func() {}, want: false},
		{action: func() { _ = s.Save(ctx, "tok", "", "") }, want: true},
		{action: func() { _ = s.Clear(ctx) }, want: false},
		{action: func() { _ = s.Save(ctx, "tok2", "ADMIN", "") }, want: true},
	}

	for i, step := range steps {
		step.action()
		if got := g.CanActivate(ctx); got != step.want {
			t.Fatalf("step %d: expected %v, got %v", i, step.want, got)
		}
	}
}

func TestGuardPerRequestNavigator(t *testing.T) {
	storeNav := &recordingNavigator{}
	reqNav := &recordingNavigator{}
	s := newTestStore(t, storage.NewMemory(), storeNav)
	g := newTestGuard(t, s)

	if g.CanActivateWith(context.Background(), reqNav) {
		t.Fatal("expected guard to deny")
	}
	if len(storeNav.Calls()) != 0 {
		t.Fatal("expected store navigator untouched")
	}
	if len(reqNav.Calls()) != 1 {
		t.Fatalf("expected request navigator used, got %+v", reqNav.Calls())
	}
}

func TestGuardRecordsLatency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	s := newTestStoreWithConfig(t, cfg, storage.NewMemory(), nil)
	g := newTestGuard(t, s)

	for i := 0; i < 3; i++ {
		g.CanActivate(context.Background())
	}

	var total uint64
	for _, n := range s.MetricsSnapshot().Histograms[MetricGuardLatency] {
		total += n
	}
	if total != 3 {
		t.Fatalf("expected 3 latency observations, got %d", total)
	}
}

func TestNewAccessGuardNilStore(t *testing.T) {
	if _, err := NewAccessGuard(nil); !errors.Is(err, ErrNilStore) {
		t.Fatalf("expected ErrNilStore, got %v", err)
	}
}
