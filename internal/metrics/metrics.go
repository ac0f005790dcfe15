package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job lifecycle instruments, exported at /metrics. Registered on the default
// registry so promhttp.Handler picks them up without extra wiring.
var (
	JobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetchd_jobs_submitted_total",
		Help: "Acquisition jobs accepted for background processing.",
	})

	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetchd_jobs_completed_total",
		Help: "Jobs that produced a downloadable artifact.",
	})

	JobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetchd_jobs_failed_total",
		Help: "Jobs that ended in a terminal error.",
	})

	JobsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fetchd_jobs_purged_total",
		Help: "Jobs removed by the retention reaper.",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fetchd_active_workers",
		Help: "Acquisition workers currently running.",
	})
)
