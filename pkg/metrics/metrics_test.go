package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounterAndGauge(t *testing.T) {
	r := New()
	c := r.Counter("decodes_total", "total decodes")
	c.Inc()
	c.Add(2)
	if c.Value() != 3 {
		t.Errorf("counter = %d", c.Value())
	}
	if r.Counter("decodes_total", "") != c {
		t.Error("same name must return the same counter")
	}

	g := r.Gauge("active", "")
	g.Set(5)
	g.Dec()
	if g.Value() != 4 {
		t.Errorf("gauge = %d", g.Value())
	}
}

func TestWithLabels(t *testing.T) {
	got := WithLabels("events_total", "event", "cache_hit", "provider", "nhtsa")
	want := `events_total{event="cache_hit",provider="nhtsa"}`
	if got != want {
		t.Errorf("got %s", got)
	}
	if WithLabels("x", "odd") != "x" {
		t.Error("odd label pairs should be ignored")
	}
}

func TestRender_LabeledSeries(t *testing.T) {
	r := New()
	r.Counter(WithLabels("events_total", "event", "hit"), "events").Inc()
	r.Counter(WithLabels("events_total", "event", "miss"), "").Add(2)

	out := r.Render()
	for _, want := range []string{
		"# TYPE events_total counter",
		`events_total{event="hit"} 1`,
		`events_total{event="miss"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}

func TestRender_Histogram(t *testing.T) {
	r := New()
	h := r.Histogram("latency_seconds", "decode latency", []float64{0.1, 1})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(5)

	out := r.Render()
	for _, want := range []string{
		`latency_seconds_bucket{le="0.1"} 1`,
		`latency_seconds_bucket{le="1"} 2`,
		`latency_seconds_bucket{le="+Inf"} 3`,
		"latency_seconds_count 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("x_total", "").Inc()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 || !strings.Contains(rec.Body.String(), "x_total 1") {
		t.Errorf("handler output: %d %s", rec.Code, rec.Body.String())
	}
}
