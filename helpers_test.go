package portalauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/portalauth/storage"
	"go.uber.org/zap/zaptest"
)

type navCall struct {
	path string
	hard bool
}

// recordingNavigator captures navigation requests. navigateErr makes every
// Navigate call fail.
type recordingNavigator struct {
	mu          sync.Mutex
	calls       []navCall
	navigateErr error
}

func (n *recordingNavigator) Navigate(_ context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{path: path})
	return n.navigateErr
}

func (n *recordingNavigator) HardRedirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{path: path, hard: true})
}

func (n *recordingNavigator) Calls() []navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navCall(nil), n.calls...)
}

var errBackend = errors.New("backend down")

// faultyStorage wraps a Storage and fails writes or reads of chosen keys.
type faultyStorage struct {
	storage.Storage
	failSet    map[string]bool
	failRemove map[string]bool
	failGet    map[string]bool
}

func (f *faultyStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet[key] {
		return "", false, errBackend
	}
	return f.Storage.Get(ctx, key)
}

func (f *faultyStorage) Set(ctx context.Context, key, value string) error {
	if f.failSet[key] {
		return errBackend
	}
	return f.Storage.Set(ctx, key, value)
}

func (f *faultyStorage) Remove(ctx context.Context, key string) error {
	if f.failRemove[key] {
		return errBackend
	}
	return f.Storage.Remove(ctx, key)
}

func newTestStore(t *testing.T, st storage.Storage, nav Navigator) *SessionStore {
	t.Helper()
	return newTestStoreWithConfig(t, DefaultConfig(), st, nav)
}

func newTestStoreWithConfig(t *testing.T, cfg Config, st storage.Storage, nav Navigator) *SessionStore {
	t.Helper()

	s, err := New().
		WithConfig(cfg).
		WithStorage(st).
		WithNavigator(nav).
		WithLogger(zaptest.NewLogger(t)).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
