package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "charityledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Lifecycle metrics
	CharitiesInitialized prometheus.Counter
	DonationWindowOpen   prometheus.Gauge

	// Donation metrics
	DonationsReceived prometheus.Counter
	DonationAmount    prometheus.Histogram
	TotalDonations    prometheus.Gauge
	TreasuryBalance   prometheus.Gauge

	// Settlement metrics
	Settlements      prometheus.Counter
	SettlementAmount prometheus.Histogram

	// Use case metrics
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Wallet metrics
	Airdrops prometheus.Counter

	// Worker metrics
	KeeperRuns      *prometheus.CounterVec
	OutboxPublished *prometheus.CounterVec

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	GRPCRequests         *prometheus.CounterVec
	GRPCDuration         *prometheus.HistogramVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates metrics registered on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all Prometheus metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	amountBuckets := prometheus.ExponentialBuckets(1_000, 10, 10)

	return &Metrics{
		CharitiesInitialized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charities_initialized_total",
			Help:      "Total number of charity records initialized",
		}),
		DonationWindowOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "donation_window_open",
			Help:      "1 while the donation window is open, 0 after settlement",
		}),

		DonationsReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "donations_received_total",
			Help:      "Total number of accepted donations",
		}),
		DonationAmount: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "donation_amount_base_units",
			Help:      "Accepted donation amounts in base units",
			Buckets:   amountBuckets,
		}),
		TotalDonations: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_donations_base_units",
			Help:      "Accumulated donations recorded on the charity",
		}),
		TreasuryBalance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "treasury_balance_base_units",
			Help:      "Current treasury balance",
		}),

		Settlements: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Total number of completed settlements",
		}),
		SettlementAmount: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_amount_base_units",
			Help:      "Amounts paid to the beneficiary",
			Buckets:   amountBuckets,
		}),

		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of ledger operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_errors_total",
				Help:      "Failed ledger operations by error code",
			},
			[]string{"operation", "code"},
		),

		Airdrops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "airdrops_total",
			Help:      "Total number of faucet credits",
		}),

		KeeperRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "keeper_runs_total",
				Help:      "Keeper settlement attempts by result",
			},
			[]string{"result"},
		),
		OutboxPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_total",
				Help:      "Outbox events processed by status",
			},
			[]string{"status"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		GRPCRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "grpc_requests_total",
				Help:      "Total gRPC requests",
			},
			[]string{"method", "status"},
		),
		GRPCDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "grpc_duration_seconds",
				Help:      "gRPC request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Query cache lookups by result",
			},
			[]string{"result"},
		),

		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Total rate limit hits",
			},
			[]string{"ip"},
		),

		AuditLogsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_logs_total",
				Help:      "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
