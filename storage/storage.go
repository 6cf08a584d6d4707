package storage

import (
	"context"
	"errors"
)

var (
	// ErrBackendUnavailable is returned when the backing store cannot be reached.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	// ErrCorrupt is returned when persisted data cannot be decoded.
	ErrCorrupt = errors.New("storage data corrupt")
)

// Storage is a durable, origin-scoped string key-value store.
//
// Each operation is a single atomic key read or write at the backend, so
// callers never need a multi-step critical section.
type Storage interface {
	// Available reports whether durable storage exists in this environment.
	Available() bool
	// Get returns the stored value and whether the key is present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Change describes a write observed on a shared backend.
//
// An empty Key means the backend cannot tell which key changed; consumers
// should treat it as "anything may have changed".
type Change struct {
	Key     string `json:"key,omitempty"`
	Origin  string `json:"origin,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// Watcher is implemented by backends that can report writes made by other
// views sharing the same data.
//
// The returned channel is closed once ctx is done. Delivery is best-effort and
// may coalesce: a consumer must re-read state instead of trusting the event
// payload.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}

type originContextKey struct{}

// WithOrigin tags ctx with the identifier of the view performing a write.
// Backends that publish changes copy it into [Change.Origin] so the writer can
// skip its own notifications.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, originContextKey{}, origin)
}

// OriginFromContext returns the origin set by [WithOrigin], or "".
func OriginFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	origin, _ := ctx.Value(originContextKey{}).(string)
	return origin
}
