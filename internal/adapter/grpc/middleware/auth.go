package middleware

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	pb "github.com/iho/charityledger/internal/adapter/grpc/charityv1"
	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

const (
	// AuthorizationHeader is the metadata key for authorization
	AuthorizationHeader = "authorization"

	// PrincipalHeader carries the caller identity when authentication is disabled.
	PrincipalHeader = "x-principal"
)

// publicMethods do not need a signer.
var publicMethods = map[string]bool{
	pb.CharityService_GetCharityInfo_FullMethodName: true,
}

// PrincipalResolver resolves a bearer token to a principal.
type PrincipalResolver interface {
	Principal(token string) (domain.Principal, error)
}

// AuthInterceptor creates a gRPC authentication interceptor. Signed methods
// require a bearer token; public methods pass through.
func AuthInterceptor(resolver PrincipalResolver, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	reject := func(reason, msg string) error {
		if m != nil {
			m.AuthFailures.WithLabelValues(reason).Inc()
		}
		return status.Error(codes.Unauthenticated, msg)
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, reject("missing_header", "missing metadata")
		}

		values := md.Get(AuthorizationHeader)
		if len(values) == 0 {
			return nil, reject("missing_header", "missing authorization token")
		}

		accessToken := strings.TrimPrefix(values[0], "Bearer ")

		principal, err := resolver.Principal(accessToken)
		if err != nil {
			if errors.Is(err, domain.ErrExpiredToken) {
				return nil, reject("expired_token", "token has expired")
			}
			return nil, reject("invalid_token", "invalid token")
		}

		return handler(domain.WithPrincipal(ctx, principal), req)
	}
}

// MetadataPrincipalInterceptor trusts the x-principal metadata key. Only
// install it when authentication is disabled.
func MetadataPrincipalInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		values := md.Get(PrincipalHeader)
		if len(values) == 0 {
			return handler(ctx, req)
		}

		id, err := domain.ParseIdentity(values[0])
		if err != nil || id.IsZero() {
			return nil, status.Error(codes.Unauthenticated, "invalid principal")
		}

		return handler(domain.WithPrincipal(ctx, domain.Principal{Identity: id}), req)
	}
}

// ChainUnaryServer chains multiple unary interceptors
func ChainUnaryServer(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			interceptor := interceptors[i]
			next := chain
			chain = func(ctx context.Context, req any) (any, error) {
				return interceptor(ctx, req, info, next)
			}
		}
		return chain(ctx, req)
	}
}
