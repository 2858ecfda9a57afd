// Package metrics provides Prometheus metrics for the browser service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "browserd"

var (
	// PagesOpened counts tabs opened by the executor.
	PagesOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_opened_total",
			Help:      "Total number of browser pages opened",
		},
	)

	// PagesClosed counts tabs released by the executor.
	PagesClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_closed_total",
			Help:      "Total number of browser pages closed",
		},
	)

	// PagesInFlight tracks tabs currently open.
	PagesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pages_in_flight",
			Help:      "Number of browser pages currently open",
		},
	)

	// TaskDuration measures how long a page task ran, including page setup.
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of page tasks in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"task", "status"},
	)

	// RequestsTotal counts HTTP requests by route and status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	// BrowserUp is 1 while the browser session is alive.
	BrowserUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "browser_up",
			Help:      "Browser session status (1 = running, 0 = stopped)",
		},
	)
)

// RecordPageOpened records a page being opened.
func RecordPageOpened() {
	PagesOpened.Inc()
	PagesInFlight.Inc()
}

// RecordPageClosed records a page being released.
func RecordPageClosed() {
	PagesClosed.Inc()
	PagesInFlight.Dec()
}

// RecordTask records a finished page task.
func RecordTask(task string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	TaskDuration.WithLabelValues(task, status).Observe(duration.Seconds())
}

// SetBrowserUp sets the browser status gauge.
func SetBrowserUp(up bool) {
	if up {
		BrowserUp.Set(1)
		return
	}
	BrowserUp.Set(0)
}
