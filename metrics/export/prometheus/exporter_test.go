package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/portalauth"
	"github.com/MrEthical07/portalauth/storage"
)

type fakeSource struct {
	id        string
	loggedIn  bool
	snapshot  portalauth.MetricsSnapshot
	dropped   uint64
	delivered uint64
}

func (f fakeSource) ViewID() string                              { return f.id }
func (f fakeSource) IsLoggedIn() bool                            { return f.loggedIn }
func (f fakeSource) MetricsSnapshot() portalauth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                        { return f.dropped }
func (f fakeSource) AuditDelivered() uint64                      { return f.delivered }

func mustExporter(t testing.TB, sources ...Source) *PrometheusExporter {
	t.Helper()
	exp, err := NewPrometheusExporterFromSource(sources...)
	if err != nil {
		t.Fatalf("NewPrometheusExporterFromSource: %v", err)
	}
	return exp
}

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := mustExporter(t, fakeSource{
		id: "view-a",
		snapshot: portalauth.MetricsSnapshot{
			Counters:   map[portalauth.MetricID]uint64{},
			Histograms: map[portalauth.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
	if got := NewPrometheusExporter().Render(); got != "" {
		t.Fatalf("expected empty output without views, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := mustExporter(t, fakeSource{
		id:       "view-a",
		loggedIn: true,
		snapshot: portalauth.MetricsSnapshot{
			Counters: map[portalauth.MetricID]uint64{
				portalauth.MetricGuardDenied: 7,
			},
			Histograms: map[portalauth.MetricID][]uint64{
				portalauth.MetricGuardLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped:   2,
		delivered: 9,
	})

	out := exp.Render()
	for _, want := range []string{
		`portal_guard_denied_total{view="view-a"} 7`,
		`portal_session_saved_total{view="view-a"} 0`,
		`portal_guard_latency_seconds_bucket{view="view-a",le="0.000001"} 1`,
		`portal_guard_latency_seconds_bucket{view="view-a",le="+Inf"} 36`,
		`portal_guard_latency_seconds_count{view="view-a"} 36`,
		`portal_session_logged_in{view="view-a"} 1`,
		`portal_audit_dropped_total{view="view-a"} 2`,
		`portal_audit_delivered_total{view="view-a"} 9`,
		"# TYPE portal_session_logged_in gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderLabelsEachViewOnce(t *testing.T) {
	counters := func(n uint64) portalauth.MetricsSnapshot {
		return portalauth.MetricsSnapshot{
			Counters:   map[portalauth.MetricID]uint64{portalauth.MetricLogout: n},
			Histograms: map[portalauth.MetricID][]uint64{},
		}
	}
	exp := mustExporter(t,
		fakeSource{id: "tab-2", snapshot: counters(5)},
		fakeSource{id: "tab-1", loggedIn: true, snapshot: counters(3)},
	)

	out := exp.Render()
	if strings.Count(out, "# TYPE portal_logout_total counter") != 1 {
		t.Fatalf("expected one TYPE line per family, got:\n%s", out)
	}
	first := strings.Index(out, `portal_logout_total{view="tab-1"} 3`)
	second := strings.Index(out, `portal_logout_total{view="tab-2"} 5`)
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected both views in view order, got:\n%s", out)
	}
	if !strings.Contains(out, `portal_session_logged_in{view="tab-2"} 0`) {
		t.Fatalf("expected logged-out gauge for tab-2, got:\n%s", out)
	}

	if !exp.Remove("tab-1") {
		t.Fatal("expected tab-1 to be registered")
	}
	if out := exp.Render(); strings.Contains(out, `view="tab-1"`) {
		t.Fatalf("expected tab-1 gone after Remove, got:\n%s", out)
	}
}

func TestRenderEscapesViewLabel(t *testing.T) {
	exp := mustExporter(t, fakeSource{
		id: `odd"view\`,
		snapshot: portalauth.MetricsSnapshot{
			Counters:   map[portalauth.MetricID]uint64{portalauth.MetricLogout: 1},
			Histograms: map[portalauth.MetricID][]uint64{},
		},
	})

	if out := exp.Render(); !strings.Contains(out, `portal_logout_total{view="odd\"view\\"} 1`) {
		t.Fatalf("expected escaped view label, got:\n%s", out)
	}
}

func TestFromSourceRejectsBadViews(t *testing.T) {
	if _, err := NewPrometheusExporterFromSource(fakeSource{}); err == nil {
		t.Fatal("expected error for empty view id")
	}
	if _, err := NewPrometheusExporterFromSource(fakeSource{id: "a"}, fakeSource{id: "a"}); err == nil {
		t.Fatal("expected error for repeated view id")
	}
}

func TestExporterReadsLiveStores(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	build := func() *portalauth.SessionStore {
		store, err := portalauth.New().
			WithStorage(mem).
			WithMetricsEnabled(true).
			Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return store
	}

	a := build()
	defer a.Close()
	exp := NewPrometheusExporter(a, nil, a)

	if err := a.Save(ctx, "tok", "ADMIN", "Asha"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b := build()
	defer b.Close()
	if err := exp.Add(b); err != nil {
		t.Fatalf("Add: %v", err)
	}

	out := exp.Render()
	for _, want := range []string{
		`portal_session_saved_total{view="` + a.ViewID() + `"} 1`,
		`portal_session_saved_total{view="` + b.ViewID() + `"} 0`,
		`portal_session_logged_in{view="` + a.ViewID() + `"} 1`,
		`portal_session_logged_in{view="` + b.ViewID() + `"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := mustExporter(t, fakeSource{
		id: "view-a",
		snapshot: portalauth.MetricsSnapshot{
			Counters:   map[portalauth.MetricID]uint64{portalauth.MetricLogout: 1},
			Histograms: map[portalauth.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `portal_logout_total{view="view-a"} 1`) {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func BenchmarkRender(b *testing.B) {
	snap := portalauth.MetricsSnapshot{
		Counters: map[portalauth.MetricID]uint64{
			portalauth.MetricSessionSaved:   1000,
			portalauth.MetricSessionCleared: 40,
			portalauth.MetricGuardAllowed:   800,
			portalauth.MetricGuardDenied:    10,
		},
		Histograms: map[portalauth.MetricID][]uint64{
			portalauth.MetricGuardLatency: {10, 20, 30, 40, 50, 60, 70, 80},
		},
	}
	exp := mustExporter(b,
		fakeSource{id: "tab-1", snapshot: snap},
		fakeSource{id: "tab-2", snapshot: snap},
	)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
