package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	grpcServer "github.com/iho/charityledger/internal/adapter/grpc/server"
	httpAdapter "github.com/iho/charityledger/internal/adapter/http"
	"github.com/iho/charityledger/internal/adapter/http/handler"
	"github.com/iho/charityledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/charityledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/charityledger/internal/adapter/repository/redis"
	"github.com/iho/charityledger/internal/infrastructure/auth"
	"github.com/iho/charityledger/internal/infrastructure/config"
	"github.com/iho/charityledger/internal/infrastructure/eventpublisher"
	"github.com/iho/charityledger/internal/infrastructure/keeper"
	"github.com/iho/charityledger/internal/infrastructure/logger"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
	"github.com/iho/charityledger/internal/infrastructure/oracle"
	"github.com/iho/charityledger/internal/infrastructure/postgres"
	"github.com/iho/charityledger/internal/infrastructure/redis"
	"github.com/iho/charityledger/internal/usecase"
)

const serviceName = "charityledger"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: serviceName})
	log.Logger = lg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal().Err(err).Msg("server failed")
	}

	lg.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, lg zerolog.Logger) error {
	deployment, err := cfg.Deployment()
	if err != nil {
		return err
	}

	jwtManager, err := newJWTManager(cfg)
	if err != nil {
		return err
	}

	if cfg.MigrateOnStart {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, lg).Up(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	lg.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, cfg.RedisPoolSize)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	lg.Info().Msg("connected to redis")

	m := metrics.New()

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	charityRepo := postgresRepo.NewCharityRepository(pool)
	treasuryRepo := postgresRepo.NewTreasuryRepository(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	donationRepo := postgresRepo.NewDonationRepository(pool)
	settlementRepo := postgresRepo.NewSettlementRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(lg)
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	clock := oracle.SystemClock{}
	rent := cfg.RentSchedule()

	// Use cases
	lifecycleUC := usecase.NewLifecycleUseCase(txManager, charityRepo, treasuryRepo, walletRepo, outboxRepo, auditRepo,
		idGen, clock, rent, deployment, cfg.TreasuryDataSize).
		WithRetrier(retrier).WithCache(cache).WithMetrics(m)
	donationUC := usecase.NewDonationUseCase(txManager, charityRepo, treasuryRepo, walletRepo, donationRepo, outboxRepo,
		auditRepo, idGen, clock, deployment).
		WithRetrier(retrier).WithCache(cache).WithMetrics(m)
	settlementUC := usecase.NewSettlementUseCase(txManager, charityRepo, treasuryRepo, walletRepo, settlementRepo,
		outboxRepo, auditRepo, idGen, clock, rent, deployment, cfg.BaseFee).
		WithRetrier(retrier).WithCache(cache).WithMetrics(m)
	queryUC := usecase.NewQueryUseCase(txManager, charityRepo, treasuryRepo, donationRepo, settlementRepo, deployment).
		WithCache(cache, cfg.CacheTTL).WithMetrics(m)
	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, auditRepo, idGen, clock,
		usecase.AirdropConfig{Enabled: cfg.AirdropEnabled, MaxAmount: cfg.AirdropMaxAmount}).
		WithRetrier(retrier).WithMetrics(m)
	reconciliationUC := usecase.NewReconciliationUseCase(txManager, charityRepo, treasuryRepo, donationRepo, settlementRepo,
		rent, clock, deployment)

	lg.Info().
		Str("program", deployment.Program.String()).
		Str("charity", deployment.Charity.String()).
		Str("treasury", deployment.Treasury.String()).
		Msg("deployment resolved")

	// Background workers
	workers, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	if cfg.OutboxEnabled {
		publisher, closePublisher, err := newPublisher(cfg, lg)
		if err != nil {
			return err
		}
		defer closePublisher()

		worker := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  publisher,
			Logger:     lg,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
		go runWorker(workers, lg, "outbox", worker.Start)
	}

	if cfg.KeeperEnabled {
		principal, err := cfg.KeeperIdentity()
		if err != nil {
			return err
		}
		k := keeper.New(keeper.Config{
			Settler:     settlementUC,
			Settlements: queryUC,
			Principal:   principal,
			Interval:    cfg.KeeperInterval,
			Logger:      lg,
			Metrics:     m,
		})
		go runWorker(workers, lg, "keeper", k.Start)
	}

	// HTTP
	routerCfg := httpAdapter.RouterConfig{
		CharityHandler:   handler.NewCharityHandler(lifecycleUC, donationUC, settlementUC, queryUC, reconciliationUC),
		WalletHandler:    handler.NewWalletHandler(walletUC),
		HealthHandler:    handler.NewHealthHandler(healthChecks(pool, redisClient)...),
		Logger:           lg,
		Metrics:          m,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
	}
	if jwtManager != nil {
		routerCfg.Auth = middleware.NewAuthMiddleware(jwtManager, m)
	}
	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
		limiter.StartCleanup(workers, time.Minute, 10*time.Minute)
		routerCfg.RateLimiter = limiter
	}

	server := newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg))
	errCh := make(chan error, 2)

	go func() {
		lg.Info().Str("port", cfg.HTTPPort).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// gRPC
	var gs *grpc.Server
	if cfg.GRPCEnabled {
		grpcCfg := grpcServer.Config{
			Charity:          grpcServer.NewCharityServer(lifecycleUC, donationUC, settlementUC, queryUC),
			Logger:           lg,
			Metrics:          m,
			IdempotencyStore: idempotencyStore,
			IdempotencyTTL:   cfg.IdempotencyTTL,
		}
		if jwtManager != nil {
			grpcCfg.Resolver = jwtManager
		}
		gs = grpcServer.New(grpcCfg)

		lis, err := net.Listen("tcp", listenAddr(cfg.GRPCPort))
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}

		go func() {
			lg.Info().Str("port", cfg.GRPCPort).Msg("starting grpc server")
			if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		lg.Info().Msg("shutting down server...")
	case serveErr = <-errCh:
		lg.Error().Err(serveErr).Msg("server error, shutting down")
	}

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if gs != nil {
		gracefulStopGRPC(shutdownCtx, gs)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return serveErr
}

// newJWTManager returns nil when authentication is disabled.
func newJWTManager(cfg *config.Config) (*auth.JWTManager, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("AUTH_ENABLED requires JWT_SECRET")
	}
	return auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration), nil
}

// newPublisher picks NATS when NATS_URL is set and falls back to logging events.
func newPublisher(cfg *config.Config, lg zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.NATSURL == "" {
		lg.Warn().Msg("NATS_URL not set, outbox events are logged only")
		return eventpublisher.NewLogPublisher(lg), func() {}, nil
	}

	conn, err := eventpublisher.ConnectNATS(cfg.NATSURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}
	lg.Info().Msg("connected to nats")

	return eventpublisher.NewNATSPublisher(conn, serviceName), func() { _ = conn.Drain() }, nil
}

func healthChecks(pool *pgxpool.Pool, client *goredis.Client) []handler.HealthCheck {
	return []handler.HealthCheck{
		{Name: "database", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return client.Ping(ctx).Err() }},
	}
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

func listenAddr(port string) string {
	return ":" + port
}

func runWorker(ctx context.Context, lg zerolog.Logger, name string, start func(context.Context) error) {
	if err := start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error().Err(err).Str("worker", name).Msg("worker stopped")
	}
}

// gracefulStopGRPC waits for in-flight calls until ctx expires, then forces the stop.
func gracefulStopGRPC(ctx context.Context, gs *grpc.Server) {
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		gs.Stop()
	}
}
