package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "physio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "physio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "physio_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	orphanedCaregiversDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "physio_orphaned_caregivers_deleted_total",
			Help: "Caregivers removed after their last patient link was detached",
		},
	)

	treatmentStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "physio_treatment_status_changes_total",
			Help: "Patient treatment status transitions",
		},
		[]string{"from_status", "to_status"},
	)

	lifecycleActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "physio_lifecycle_actions_total",
			Help: "Soft deletes, restores and hard deletes per entity",
		},
		[]string{"entity", "action"},
	)

	purgedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "physio_purged_rows_total",
			Help: "Soft-deleted rows permanently removed by the purge job",
		},
		[]string{"entity"},
	)

	heartbeats = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "physio_heartbeats_total",
			Help: "Liveness heartbeats emitted by the maintenance runner",
		},
	)

	dbPoolConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "physio_db_pool_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one completed HTTP request. route is the matched
// route template, never the raw path.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func RequestStarted()  { httpRequestsInFlight.Inc() }
func RequestFinished() { httpRequestsInFlight.Dec() }

func RecordOrphanedCaregiverDeleted() {
	orphanedCaregiversDeleted.Inc()
}

func RecordTreatmentStatusChange(from, to string) {
	treatmentStatusChanges.WithLabelValues(from, to).Inc()
}

// RecordLifecycle counts a soft-delete, restore or hard-delete on entity.
func RecordLifecycle(entity, action string) {
	lifecycleActions.WithLabelValues(entity, action).Inc()
}

func RecordPurged(entity string, n int64) {
	if n > 0 {
		purgedRows.WithLabelValues(entity).Add(float64(n))
	}
}

func RecordHeartbeat() {
	heartbeats.Inc()
}

// SetPoolConns publishes the pool's total, idle and acquired connection counts.
func SetPoolConns(total, idle, acquired int32) {
	dbPoolConns.WithLabelValues("total").Set(float64(total))
	dbPoolConns.WithLabelValues("idle").Set(float64(idle))
	dbPoolConns.WithLabelValues("acquired").Set(float64(acquired))
}
