package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.AddChecklistRows(1, 2, 3)
	m.IncGroupCreate("debt_item", "created")
	m.IncCompletionPath("batch")
	m.IncCatalogLookup(true)
	m.APIInflightInc()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestMetricsExposition(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("GET", "/api/projects/:id", "200", 30*time.Millisecond)
	m.AddChecklistRows(3, 1, 0)
	m.IncGroupCreate("debt_item", "collision")
	m.IncCatalogLookup(false)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`bd_api_requests_total{method="GET",route="/api/projects/:id",status="200"} 1`,
		`bd_api_request_duration_seconds_bucket{method="GET",route="/api/projects/:id",le="0.05"} 1`,
		`bd_api_request_duration_seconds_bucket{method="GET",route="/api/projects/:id",le="0.025"} 0`,
		`bd_checklist_rows_total{outcome="created"} 3`,
		`bd_checklist_rows_total{outcome="skipped"} 1`,
		`bd_group_create_attempts_total{table="debt_item",outcome="collision"} 1`,
		`bd_catalog_cache_lookups_total{result="miss"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `outcome="error"`) {
		t.Fatalf("zero deltas should not create series:\n%s", out)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	if got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString=%s", got)
	}
	if withLe("", "+Inf") != `{le="+Inf"}` {
		t.Fatalf("withLe empty=%s", withLe("", "+Inf"))
	}
}
