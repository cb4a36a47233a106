package server

import (
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	pb "github.com/iho/charityledger/internal/adapter/grpc/charityv1"
	"github.com/iho/charityledger/internal/adapter/grpc/middleware"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// Config holds dependencies for the gRPC server.
type Config struct {
	Charity *CharityServer
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Resolver authenticates signed methods. When nil, the x-principal
	// metadata key is trusted instead.
	Resolver middleware.PrincipalResolver

	IdempotencyStore middleware.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// New builds a grpc.Server with the interceptor chain and registers the service.
func New(cfg Config, opts ...grpc.ServerOption) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		middleware.LoggingInterceptor(cfg.Logger),
		middleware.RecoveryInterceptor(),
		middleware.MetricsInterceptor(cfg.Metrics),
	}

	if cfg.Resolver != nil {
		interceptors = append(interceptors, middleware.AuthInterceptor(cfg.Resolver, cfg.Metrics))
	} else {
		interceptors = append(interceptors, middleware.MetadataPrincipalInterceptor())
	}

	if cfg.IdempotencyStore != nil {
		ttl := cfg.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		interceptors = append(interceptors, middleware.IdempotencyInterceptor(cfg.IdempotencyStore, ttl))
	}

	opts = append(opts, grpc.UnaryInterceptor(middleware.ChainUnaryServer(interceptors...)))
	s := grpc.NewServer(opts...)
	pb.RegisterCharityServiceServer(s, cfg.Charity)

	return s
}
