package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devisportal_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devisportal_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	DevisTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devisportal_devis_transitions_total",
		Help: "Applied devis lifecycle transitions.",
	}, []string{"action"})

	FacturesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devisportal_factures_created_total",
		Help: "Created factures by origin.",
	}, []string{"source"})

	PaymentsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devisportal_payments_completed_total",
		Help: "Payment session resolutions by provider and outcome.",
	}, []string{"provider", "outcome"})
)

var (
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devisportal_jobs_total",
		Help: "Background task executions by type and status.",
	}, []string{"task", "status"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devisportal_job_duration_seconds",
		Help:    "Background task latency by type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
)
