package internaldefs

import (
	"errors"
	"sort"
	"sync"

	"github.com/MrEthical07/portalauth"
)

// Source is one view an exporter reports on. *portalauth.SessionStore
// implements it.
type Source interface {
	ViewID() string
	IsLoggedIn() bool
	MetricsSnapshot() portalauth.MetricsSnapshot
	AuditDropped() uint64
	AuditDelivered() uint64
}

// ViewLabel is the label (Prometheus) or attribute (OTel) carrying the
// source's ViewID on every series.
const ViewLabel = "view"

const (
	LoggedInName = "portal_session_logged_in"
	LoggedInHelp = "1 while the view holds a session token, else 0."

	AuditDeliveredName = "portal_audit_delivered_total"
	AuditDeliveredHelp = "Audit events handed to the sink."
)

var (
	ErrNilSource     = errors.New("nil metrics source")
	ErrEmptyViewID   = errors.New("metrics source has an empty view id")
	ErrDuplicateView = errors.New("view already registered")
)

// Views is the set of sources behind one exporter, keyed by view ID.
// The zero value is ready to use.
type Views struct {
	mu   sync.RWMutex
	byID map[string]Source
}

// Add registers src under its ViewID.
func (v *Views) Add(src Source) error {
	if src == nil {
		return ErrNilSource
	}
	id := src.ViewID()
	if id == "" {
		return ErrEmptyViewID
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.byID[id]; ok {
		return ErrDuplicateView
	}
	if v.byID == nil {
		v.byID = make(map[string]Source)
	}
	v.byID[id] = src
	return nil
}

// Remove drops the view with id and reports whether it was registered.
func (v *Views) Remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.byID[id]; !ok {
		return false
	}
	delete(v.byID, id)
	return true
}

// Sorted returns the registered sources ordered by view ID, so repeated
// renders list series in a stable order.
func (v *Views) Sorted() []Source {
	v.mu.RLock()
	out := make([]Source, 0, len(v.byID))
	for _, src := range v.byID {
		out = append(out, src)
	}
	v.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ViewID() < out[j].ViewID()
	})
	return out
}

// Len reports how many views are registered.
func (v *Views) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.byID)
}

// BoolGauge maps a flag to a gauge value.
func BoolGauge(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
