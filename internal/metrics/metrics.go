package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malkhana_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "malkhana_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	IncidentsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "malkhana_incidents_registered_total",
		Help: "Incidents registered.",
	})

	EvidenceRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "malkhana_evidence_registered_total",
		Help: "Evidence items registered with a tracking code.",
	})

	CustodyTransfers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malkhana_custody_transfers_total",
			Help: "Custody transfers recorded by purpose.",
		},
		[]string{"purpose"},
	)

	CaseClosures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malkhana_case_closures_total",
			Help: "Incidents closed by disposition method.",
		},
		[]string{"disposition"},
	)

	BlobUploadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malkhana_blob_upload_failures_total",
			Help: "Failed blob uploads by object kind.",
		},
		[]string{"kind"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "malkhana_login_attempts_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)
)
