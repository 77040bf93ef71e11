package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "autoshop"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		},
		[]string{"endpoint", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	authOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_operations_total",
			Help:      "Session provider operations by backend mode and result.",
		},
		[]string{"mode", "operation", "result"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking confirmations by result.",
		},
		[]string{"result"},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_sync_tasks_total",
			Help:      "Spreadsheet sync tasks by type and result.",
		},
		[]string{"type", "result"},
	)

	activeClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_clients",
			Help:      "Clients with a live session provider.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, authOperations, bookings, syncTasks, activeClients)
	})
}

func ObserveHTTP(endpoint, status string, elapsed time.Duration) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
	httpDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// IncAuth counts one provider operation; result is "ok" or "error".
func IncAuth(mode, operation string, err error) {
	authOperations.WithLabelValues(mode, operation, result(err)).Inc()
}

func IncBooking(err error) {
	bookings.WithLabelValues(result(err)).Inc()
}

func IncSyncTask(taskType string, err error) {
	syncTasks.WithLabelValues(taskType, result(err)).Inc()
}

func SetActiveClients(n int) {
	activeClients.Set(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
