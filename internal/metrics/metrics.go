// Package metrics holds the Prometheus collectors of the API
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests The total number of handled HTTP requests (counter)
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "http",
			Name:      "requests_total",
			Help:      "The total number of handled HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration The time spent handling HTTP requests (summary with quantiles 0.5, 0.9, and 0.99)
	HTTPRequestDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "http",
			Name:       "request_duration_seconds",
			Help:       "The time spent handling HTTP requests",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"method", "route"},
	)

	// BookingsCreated The total number of created bookings (counter)
	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookings",
			Name:      "created_total",
			Help:      "The total number of created bookings",
		},
		[]string{"status"},
	)

	// BookingRevenue The total grand total of created bookings per currency (counter)
	BookingRevenue = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookings",
			Name:      "revenue_total",
			Help:      "The total grand total of created bookings",
		},
		[]string{"currency"},
	)

	// CapacityRejections The total number of bookings refused for capacity (counter)
	CapacityRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookings",
			Name:      "capacity_rejections_total",
			Help:      "The total number of bookings refused because a package was full",
		},
	)

	// PaymentsRecorded The total number of payment transactions appended (counter)
	PaymentsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookings",
			Name:      "payments_recorded_total",
			Help:      "The total number of payment transactions appended to bookings",
		},
	)

	// EventsPublishFailed The total number of booking events that could not be published (counter)
	EventsPublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Name:      "publish_failed_total",
			Help:      "The total number of events that could not be published",
		},
		[]string{"routing_key"},
	)

	// CronJobRuns The total number of maintenance job runs (counter)
	CronJobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cron",
			Name:      "job_runs_total",
			Help:      "The total number of maintenance job runs",
		},
		[]string{"job", "result"},
	)

	// CacheLookups The total number of response cache lookups (counter)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cache",
			Name:      "lookups_total",
			Help:      "The total number of response cache lookups",
		},
		[]string{"result"},
	)

	// RateLimited The total number of requests refused by the rate limiter (counter)
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ratelimit",
			Name:      "rejected_total",
			Help:      "The total number of requests refused by the rate limiter",
		},
		[]string{"route"},
	)
)
