package handler

import (
	"fmt"
	"net/http"

	"github.com/registra/registra/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "registra_users_created_total %d\n", snap.UsersCreated)
	writeMetric(w, "registra_users_updated_total %d\n", snap.UsersUpdated)
	writeMetric(w, "registra_users_rejected_total %d\n", snap.UsersRejected)
	writeMetric(w, "registra_signups_rate_limited_total %d\n", snap.SignupsRateLimited)

	writeMetric(w, "registra_migrations_applied_total %d\n", snap.MigrationsApplied)
	writeMetric(w, "registra_migration_runs_failed_total %d\n", snap.MigrationRunsFailed)
	writeMetric(w, "registra_migration_run_duration_seconds_count %d\n", snap.MigrationRunDurationCount)
	writeMetric(w, "registra_migration_run_duration_seconds_sum %.6f\n", float64(snap.MigrationRunDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
