package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/charityledger/internal/adapter/http/handler"
	"github.com/iho/charityledger/internal/adapter/http/middleware"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
	"github.com/iho/charityledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CharityHandler *handler.CharityHandler
	WalletHandler  *handler.WalletHandler
	HealthHandler  *handler.HealthHandler

	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	// Auth is required on signed operations. When nil, the X-Principal
	// header is trusted instead.
	Auth *middleware.AuthMiddleware

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	signed := func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth.Authenticate)
		} else {
			r.Use(middleware.HeaderPrincipal)
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/charity", func(r chi.Router) {
			r.Get("/", cfg.CharityHandler.Get)
			r.Get("/donations", cfg.CharityHandler.ListDonations)
			r.Get("/settlement", cfg.CharityHandler.GetSettlement)
			r.Get("/reconciliation", cfg.CharityHandler.Reconcile)

			r.Group(func(r chi.Router) {
				signed(r)
				r.Post("/initialize", cfg.CharityHandler.Initialize)
				r.Post("/donations", cfg.CharityHandler.Donate)
				r.Post("/settle", cfg.CharityHandler.Settle)
			})
		})

		r.Route("/wallets/{owner}", func(r chi.Router) {
			r.Get("/", cfg.WalletHandler.Get)

			r.Group(func(r chi.Router) {
				if cfg.IdempotencyStore != nil {
					r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
				}
				r.Post("/airdrop", cfg.WalletHandler.Airdrop)
			})
		})
	})

	return r
}
