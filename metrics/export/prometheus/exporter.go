package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/portalauth"
	"github.com/MrEthical07/portalauth/metrics/export/internaldefs"
)

// Source is one view the exporter reports on.
type Source = internaldefs.Source

// PrometheusExporter renders the metrics of one or more views as Prometheus
// text. Every sample carries a view label with the source's ViewID.
type PrometheusExporter struct {
	views internaldefs.Views
}

// NewPrometheusExporter reports on stores. Nil and repeated stores are
// skipped.
func NewPrometheusExporter(stores ...*portalauth.SessionStore) *PrometheusExporter {
	p := &PrometheusExporter{}
	for _, s := range stores {
		if s != nil {
			_ = p.views.Add(s)
		}
	}
	return p
}

// NewPrometheusExporterFromSource reports on sources, failing on a nil
// source, an empty view ID or a repeated one.
func NewPrometheusExporterFromSource(sources ...Source) (*PrometheusExporter, error) {
	p := &PrometheusExporter{}
	for _, src := range sources {
		if err := p.views.Add(src); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Add starts reporting on src, typically a view opened after the exporter.
func (p *PrometheusExporter) Add(src Source) error {
	return p.views.Add(src)
}

// Remove stops reporting on the view with viewID.
func (p *PrometheusExporter) Remove(viewID string) bool {
	return p.views.Remove(viewID)
}

// Handler serves Render.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

type viewSample struct {
	label     string
	snapshot  portalauth.MetricsSnapshot
	loggedIn  bool
	dropped   uint64
	delivered uint64
}

// Render returns the current metrics, one series per view. A view with
// metrics disabled and no audit traffic is left out; with no view left the
// output is empty.
func (p *PrometheusExporter) Render() string {
	if p == nil {
		return ""
	}

	samples := collect(p.views.Sorted())
	if len(samples) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(2048 * len(samples))

	for _, def := range internaldefs.CounterDefs {
		writeHeader(&b, def.Name, def.Help, "counter")
		for _, s := range samples {
			writeSample(&b, def.Name, s.label, s.snapshot.Counters[def.ID])
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		writeHeader(&b, def.Name, def.Help, "histogram")
		for _, s := range samples {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(s.snapshot.Histograms[def.ID]))
			writeHistogram(&b, def.Name, s.label, cumulative)
		}
	}

	writeHeader(&b, internaldefs.LoggedInName, internaldefs.LoggedInHelp, "gauge")
	for _, s := range samples {
		writeSample(&b, internaldefs.LoggedInName, s.label, internaldefs.BoolGauge(s.loggedIn))
	}

	writeHeader(&b, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, "counter")
	for _, s := range samples {
		writeSample(&b, internaldefs.AuditDroppedName, s.label, s.dropped)
	}

	writeHeader(&b, internaldefs.AuditDeliveredName, internaldefs.AuditDeliveredHelp, "counter")
	for _, s := range samples {
		writeSample(&b, internaldefs.AuditDeliveredName, s.label, s.delivered)
	}

	return b.String()
}

func collect(sources []Source) []viewSample {
	out := make([]viewSample, 0, len(sources))
	for _, src := range sources {
		s := viewSample{
			label:     viewLabel(src.ViewID()),
			snapshot:  src.MetricsSnapshot(),
			loggedIn:  src.IsLoggedIn(),
			dropped:   src.AuditDropped(),
			delivered: src.AuditDelivered(),
		}
		if len(s.snapshot.Counters) == 0 && len(s.snapshot.Histograms) == 0 && s.dropped == 0 && s.delivered == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

// writeSample writes name{view="..."} value. label is the pre-rendered
// view="..." pair.
func writeSample(b *strings.Builder, name, label string, value uint64) {
	b.WriteString(name)
	b.WriteByte('{')
	b.WriteString(label)
	b.WriteString("} ")
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, label string, cumulative [8]uint64) {
	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{")
		b.WriteString(label)
		b.WriteString(",le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	writeSample(b, name+"_count", label, cumulative[len(cumulative)-1])
	// Snapshots carry no sum.
	writeSample(b, name+"_sum", label, 0)
}

func viewLabel(id string) string {
	return internaldefs.ViewLabel + "=\"" + escapeLabel(id) + "\""
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}
