package observability

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

// Metrics is the process-wide checklist and API instrument set. Every method is safe on a
// nil receiver so components can record unconditionally.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	checklistRows   *CounterVec
	groupCreates    *CounterVec
	completionPaths *CounterVec
	catalogLookups  *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the instrument set once. It returns nil when disabled.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("bd_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"bd_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		),
		apiInflight:     NewGauge("bd_api_inflight_requests", "In-flight API requests."),
		checklistRows:   NewCounterVec("bd_checklist_rows_total", "Checklist rows materialized by outcome.", []string{"outcome"}),
		groupCreates:    NewCounterVec("bd_group_create_attempts_total", "Repeatable group create attempts by table/outcome.", []string{"table", "outcome"}),
		completionPaths: NewCounterVec("bd_completion_requests_total", "Completion computations by path.", []string{"path"}),
		catalogLookups:  NewCounterVec("bd_catalog_cache_lookups_total", "Catalog cache lookups by result.", []string{"result"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []collector{
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.checklistRows,
		m.groupCreates,
		m.completionPaths,
		m.catalogLookups,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Add(1)
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Add(-1)
}

// AddChecklistRows records generator outcomes: created, skipped or error.
func (m *Metrics) AddChecklistRows(created, skipped, failed int) {
	if m == nil {
		return
	}
	m.checklistRows.Add(float64(created), "created")
	m.checklistRows.Add(float64(skipped), "skipped")
	m.checklistRows.Add(float64(failed), "error")
}

// IncGroupCreate records one create attempt: created, collision or error.
func (m *Metrics) IncGroupCreate(table, outcome string) {
	if m == nil {
		return
	}
	m.groupCreates.Inc(table, outcome)
}

func (m *Metrics) IncCompletionPath(path string) {
	if m == nil {
		return
	}
	m.completionPaths.Inc(path)
}

func (m *Metrics) IncCatalogLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.catalogLookups.Inc("hit")
		return
	}
	m.catalogLookups.Inc("miss")
}
