package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	pb "github.com/iho/charityledger/internal/adapter/grpc/charityv1"
	"github.com/iho/charityledger/internal/domain"
)

const (
	// IdempotencyKeyHeader is the metadata key for idempotency
	IdempotencyKeyHeader = "x-idempotency-key"
)

// IdempotencyStore defines the minimal contract needed for idempotency handling.
type IdempotencyStore interface {
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (exists bool, cachedResponse []byte, err error)
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// storedCall is the replayable form of a completed call.
type storedCall struct {
	RequestHash string          `json:"request_hash"`
	Response    json.RawMessage `json:"response"`
}

// IdempotencyInterceptor creates a gRPC unary interceptor for idempotency.
// A completed call is replayed; a call still in flight is rejected with Aborted.
func IdempotencyInterceptor(store IdempotencyStore, ttl time.Duration) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if store == nil || isReadOnlyMethod(info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		keys := md.Get(IdempotencyKeyHeader)
		if len(keys) == 0 {
			return handler(ctx, req)
		}

		idempotencyKey := keys[0]
		if idempotencyKey == "" {
			return nil, status.Error(codes.InvalidArgument, "idempotency key cannot be empty")
		}

		principal := "anonymous"
		if p, ok := domain.PrincipalFromContext(ctx); ok {
			principal = p.Identity.String()
		}
		cacheKey := fmt.Sprintf("grpc:%s:%s:%s", principal, info.FullMethod, idempotencyKey)

		requestHash, err := hashRequest(req)
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to generate request hash")
		}

		exists, cached, err := store.CheckAndSet(ctx, cacheKey, nil, ttl)
		if err != nil {
			// degraded mode without idempotency
			zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency store unavailable")
			return handler(ctx, req)
		}

		if exists {
			return replay(info.FullMethod, requestHash, cached)
		}

		resp, err := handler(ctx, req)
		if err != nil {
			// errors are not cached so the caller may retry
			if delErr := store.Delete(ctx, cacheKey); delErr != nil {
				zerolog.Ctx(ctx).Warn().Err(delErr).Msg("failed to release idempotency key")
			}
			return resp, err
		}

		body, err := json.Marshal(resp)
		if err == nil {
			payload, _ := json.Marshal(storedCall{RequestHash: requestHash, Response: body})
			if err := store.Update(ctx, cacheKey, payload, ttl); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to store idempotent response")
			}
		}

		return resp, nil
	}
}

func replay(fullMethod, requestHash string, cached []byte) (any, error) {
	var call storedCall
	if json.Unmarshal(cached, &call) != nil || call.RequestHash == "" {
		return nil, status.Error(codes.Aborted, "a request with this idempotency key is still in progress")
	}

	if call.RequestHash != requestHash {
		return nil, status.Error(codes.InvalidArgument, "idempotency key reused with different request body")
	}

	resp := pb.NewResponse(fullMethod)
	if resp == nil {
		return nil, status.Error(codes.Internal, "cannot replay unknown method")
	}
	if err := json.Unmarshal(call.Response, resp); err != nil {
		return nil, status.Error(codes.Internal, "corrupt idempotent response")
	}
	return resp, nil
}

// isReadOnlyMethod checks if a method is read-only
func isReadOnlyMethod(method string) bool {
	return publicMethods[method]
}

// hashRequest generates a SHA-256 hash of the request for fingerprinting
func hashRequest(req any) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
