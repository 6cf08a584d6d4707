package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/portalauth"
	"github.com/MrEthical07/portalauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = internaldefs.ErrNilSource
)

// Source is one view the exporter reports on.
type Source = internaldefs.Source

// leKey labels a cumulative bucket with its upper bound.
const leKey = attribute.Key("le")

type observedHistogram struct {
	id      portalauth.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter feeds the metrics of one or more views to an OTel meter on
// every collection. Each observation carries a view attribute with the
// source's ViewID.
type OTelExporter struct {
	views        internaldefs.Views
	registration metric.Registration

	counters       map[portalauth.MetricID]metric.Int64ObservableCounter
	histograms     []observedHistogram
	loggedIn       metric.Int64ObservableGauge
	auditDropped   metric.Int64ObservableCounter
	auditDelivered metric.Int64ObservableCounter
}

// NewOTelExporter registers observable instruments for stores on meter.
func NewOTelExporter(meter metric.Meter, stores ...*portalauth.SessionStore) (*OTelExporter, error) {
	sources := make([]Source, 0, len(stores))
	for _, s := range stores {
		if s == nil {
			return nil, ErrNilSource
		}
		sources = append(sources, s)
	}
	return NewOTelExporterFromSource(meter, sources...)
}

// NewOTelExporterFromSource registers observable instruments for sources on
// meter. At least one source is required; more can be added later.
func NewOTelExporterFromSource(meter metric.Meter, sources ...Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if len(sources) == 0 {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		counters: make(map[portalauth.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}
	for _, src := range sources {
		if err := exporter.views.Add(src); err != nil {
			return nil, err
		}
	}

	observables, err := exporter.instruments(meter)
	if err != nil {
		return nil, err
	}

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) instruments(meter metric.Meter) ([]metric.Observable, error) {
	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*2+3)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = ins
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription("Cumulative histogram bucket count, by upper bound le."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, observedHistogram{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	var err error
	if e.loggedIn, err = meter.Int64ObservableGauge(internaldefs.LoggedInName,
		metric.WithDescription(internaldefs.LoggedInHelp)); err != nil {
		return nil, fmt.Errorf("create logged-in gauge: %w", err)
	}
	if e.auditDropped, err = meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp)); err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	if e.auditDelivered, err = meter.Int64ObservableCounter(internaldefs.AuditDeliveredName,
		metric.WithDescription(internaldefs.AuditDeliveredHelp)); err != nil {
		return nil, fmt.Errorf("create audit delivered counter: %w", err)
	}
	return append(observables, e.loggedIn, e.auditDropped, e.auditDelivered), nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	for _, src := range e.views.Sorted() {
		view := attribute.String(internaldefs.ViewLabel, src.ViewID())
		byView := metric.WithAttributes(view)

		snapshot := src.MetricsSnapshot()
		for _, def := range internaldefs.CounterDefs {
			observer.ObserveInt64(e.counters[def.ID], int64(snapshot.Counters[def.ID]), byView)
		}
		for _, h := range e.histograms {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
			for i, le := range internaldefs.HistogramBounds {
				observer.ObserveInt64(h.buckets, int64(cumulative[i]), metric.WithAttributes(view, leKey.String(le)))
			}
			observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]), byView)
		}

		observer.ObserveInt64(e.loggedIn, int64(internaldefs.BoolGauge(src.IsLoggedIn())), byView)
		observer.ObserveInt64(e.auditDropped, int64(src.AuditDropped()), byView)
		observer.ObserveInt64(e.auditDelivered, int64(src.AuditDelivered()), byView)
	}
	return nil
}

// Add starts reporting on src from the next collection.
func (e *OTelExporter) Add(src Source) error {
	return e.views.Add(src)
}

// Remove stops reporting on the view with viewID.
func (e *OTelExporter) Remove(viewID string) bool {
	return e.views.Remove(viewID)
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
