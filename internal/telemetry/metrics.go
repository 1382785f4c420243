package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	BlobsAcquired = prometheus.NewCounter(prometheus.CounterOpts{Name: "cleartrack_blobs_acquired_total", Help: "Resource handles acquired"})
	BlobsReleased = prometheus.NewCounter(prometheus.CounterOpts{Name: "cleartrack_blobs_released_total", Help: "Resource handles released"})
	JobsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{Name: "cleartrack_jobs_submitted_total", Help: "Jobs submitted for processing"})
	JobsCompleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "cleartrack_jobs_completed_total", Help: "Jobs that reached completed"})
	JobsFailed    = prometheus.NewCounter(prometheus.CounterOpts{Name: "cleartrack_jobs_failed_total", Help: "Jobs that reached failed"})
	ActiveJobs    = prometheus.NewGauge(prometheus.GaugeOpts{Name: "cleartrack_jobs_active", Help: "Jobs currently queued, uploading or processing"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			BlobsAcquired,
			BlobsReleased,
			JobsSubmitted,
			JobsCompleted,
			JobsFailed,
			ActiveJobs,
		)
	})
	return promhttp.Handler()
}
