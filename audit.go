package portalauth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/MrEthical07/portalauth/storage"
)

// AuditEvent records one session or guard transition in a view.
//
// ViewID is the view that observed the transition and Seq its position in
// that view's stream. Origin is the view that caused it: equal to ViewID for
// local writes, another view's ID for synced changes, and empty when the
// backend could not tell.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	ViewID    string            `json:"view_id,omitempty"`
	Origin    string            `json:"origin,omitempty"`
	Seq       uint64            `json:"seq"`
	Role      string            `json:"role,omitempty"`
	Path      string            `json:"path,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink drops every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink writes events into a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

const (
	auditEventSessionSaved        = "session_saved"
	auditEventSessionSaveRejected = "session_save_rejected"
	auditEventSessionCleared      = "session_cleared"
	auditEventExternalChange      = "session_external_change"
	auditEventGuardDenied         = "guard_denied"
	auditEventNavigationFallback  = "navigation_fallback"
	auditEventStorageFailure      = "storage_failure"
)

// AuditErrorCode is the stable error vocabulary carried in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrEmptyToken  AuditErrorCode = "empty_token"
	auditErrStorage     AuditErrorCode = "storage_unavailable"
	auditErrCorrupt     AuditErrorCode = "storage_corrupt"
	auditErrNavigation  AuditErrorCode = "navigation_failed"
	auditErrNotLoggedIn AuditErrorCode = "not_logged_in"
	auditErrNoStorage   AuditErrorCode = "no_storage"
	auditErrInternal    AuditErrorCode = "internal_error"
)

func (s *SessionStore) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	role string,
	path string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if s == nil || s.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Origin:    s.viewID,
		Role:      role,
		Path:      path,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	s.audit.Emit(ctx, event)
}

// emitExternalAudit records a session change made by another view.
func (s *SessionStore) emitExternalAudit(ctx context.Context, change storage.Change) {
	if s == nil || s.audit == nil {
		return
	}

	var metadata map[string]string
	if change.Key != "" {
		metadata = map[string]string{"key": change.Key}
	}
	s.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventExternalChange,
		Origin:    change.Origin,
		Success:   true,
		Metadata:  metadata,
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrEmptyToken):
		return auditErrEmptyToken
	case errors.Is(err, storage.ErrCorrupt):
		return auditErrCorrupt
	case errors.Is(err, storage.ErrBackendUnavailable), errors.Is(err, ErrStorageWrite):
		return auditErrStorage
	case errors.Is(err, errNavigation):
		return auditErrNavigation
	case errors.Is(err, errNotLoggedIn):
		return auditErrNotLoggedIn
	case errors.Is(err, errNoStorage):
		return auditErrNoStorage
	default:
		return auditErrInternal
	}
}

// Internal causes used only to classify audit events.
var (
	errNavigation  = errors.New("navigation failed")
	errNotLoggedIn = errors.New("not logged in")
	errNoStorage   = errors.New("no durable storage")
)
