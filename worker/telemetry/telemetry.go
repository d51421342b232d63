package telemetry

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snow-ghost/thoughtsearch/pkg/accounting"
	"github.com/snow-ghost/thoughtsearch/pkg/limiter"
	"github.com/snow-ghost/thoughtsearch/pkg/observability"
)

// Telemetry serves the worker's operational endpoints.
type Telemetry struct {
	obs        *observability.Manager
	workerType string
	caps       string
	started    time.Time

	// Protection, when set, reports breaker and limiter state on /health.
	Protection func() []limiter.Stats
}

// NewTelemetry creates a new telemetry instance
func NewTelemetry(obs *observability.Manager, workerType, caps string) *Telemetry {
	return &Telemetry{
		obs:        obs,
		workerType: workerType,
		caps:       caps,
		started:    time.Now(),
	}
}

// HealthHandler returns a simple health check
func (t *Telemetry) HealthHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":         "ok",
		"service":        "thoughtsearch-worker",
		"worker_type":    t.workerType,
		"capabilities":   t.caps,
		"uptime_seconds": time.Since(t.started).Seconds(),
	}
	if t.Protection != nil {
		if stats := t.Protection(); stats != nil {
			body["protection"] = stats
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// MetricsHandler exposes the search metrics registry in Prometheus format.
func (t *Telemetry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(t.obs.Metrics().Registry, promhttp.HandlerOpts{})
}

// RunsHandler handles GET /runs. Query parameters filter the runs (see
// accounting.ParseRunFilter); format=csv exports, and view=report returns a
// grouped summary instead of records.
func (t *Telemetry) RunsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	filter, err := accounting.ParseRunFilter(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	acct := t.obs.Accounting()

	if r.URL.Query().Get("view") == "report" {
		report, err := acct.GetRunReport(filter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, report)
		return
	}

	if r.URL.Query().Get("format") == string(accounting.ExportFormatCSV) {
		data, err := acct.ExportRuns(filter, accounting.ExportFormatCSV)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(data)
		return
	}

	runs, err := acct.GetRuns(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []accounting.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// Middleware logs every request with its status and duration.
func (t *Telemetry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		t.obs.Logger().LogRequest(r.Method, r.URL.Path, rec.status, time.Since(start), rec.Header().Get("X-Request-ID"))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
