package middleware

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// RequestIDHeader is the metadata key carrying the caller's request id.
const RequestIDHeader = "x-request-id"

// LoggingInterceptor attaches a request-scoped logger and logs each call.
func LoggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		var requestID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(RequestIDHeader); len(ids) > 0 {
				requestID = ids[0]
			}
		}

		l := logger.With().Str("request_id", requestID).Str("method", info.FullMethod).Logger()
		ctx = l.WithContext(ctx)
		ctx = domain.WithRequestID(ctx, requestID)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		event := l.Info()
		if code == codes.Internal || code == codes.Unknown {
			event = l.Error().Err(err)
		}
		event.
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("rpc completed")

		return resp, err
	}
}

// MetricsInterceptor records call counters and latency.
func MetricsInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if m == nil {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)

		m.GRPCRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		m.GRPCDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())

		return resp, err
	}
}

// RecoveryInterceptor converts panics into Internal errors.
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				zerolog.Ctx(ctx).Error().
					Interface("error", r).
					Str("stack", string(debug.Stack())).
					Str("method", info.FullMethod).
					Msg("panic recovered")
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}
