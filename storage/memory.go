package storage

import (
	"context"
	"sync"
)

const watchBuffer = 16

// Memory is an in-process [Storage] shared by any number of views.
//
// Every Set and Remove is fanned out to all active watchers without blocking
// the writer. When a watcher's buffer is full, its oldest change is dropped
// and a keyless, originless [Change] is queued instead, so the last pending
// change always makes the consumer re-read, whoever made the dropped writes.
type Memory struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[*memoryWatch]struct{}
}

type memoryWatch struct {
	ch chan Change
}

// NewMemory returns an empty shared [Memory].
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string]string),
		watchers: make(map[*memoryWatch]struct{}),
	}
}

// Available always reports true.
func (m *Memory) Available() bool { return true }

// Get returns the value stored under key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	return value, ok, nil
}

// Set stores value under key and notifies watchers.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	m.publishLocked(Change{Key: key, Origin: OriginFromContext(ctx)})
	return nil
}

// Remove deletes key and notifies watchers. Removing an absent key still
// notifies, matching browser storage semantics closely enough for a re-read.
func (m *Memory) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	m.publishLocked(Change{Key: key, Origin: OriginFromContext(ctx), Removed: true})
	return nil
}

// Watch subscribes to every write made through this Memory.
func (m *Memory) Watch(ctx context.Context) (<-chan Change, error) {
	w := &memoryWatch{ch: make(chan Change, watchBuffer)}

	m.mu.Lock()
	m.watchers[w] = struct{}{}
	m.mu.Unlock()

	context.AfterFunc(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.watchers, w)
		close(w.ch)
	})

	return w.ch, nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// publishLocked runs under m.mu, so the consumer is the only other party
// touching w.ch and a slot freed here stays free for the send.
func (m *Memory) publishLocked(change Change) {
	for w := range m.watchers {
		select {
		case w.ch <- change:
			continue
		default:
		}

		select {
		case <-w.ch:
		default:
		}
		select {
		case w.ch <- Change{}:
		default:
		}
	}
}
