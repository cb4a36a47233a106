package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/charityledger/internal/adapter/http/dto"
	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// PrincipalHeader carries the caller identity when an upstream proxy has
// already authenticated the request.
const PrincipalHeader = "X-Principal"

// PrincipalResolver resolves a bearer token to a principal.
type PrincipalResolver interface {
	Principal(token string) (domain.Principal, error)
}

// AuthMiddleware attaches the authenticated principal to the request context.
type AuthMiddleware struct {
	resolver PrincipalResolver
	metrics  *metrics.Metrics
}

// NewAuthMiddleware creates an authentication middleware.
func NewAuthMiddleware(resolver PrincipalResolver, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, metrics: m}
}

// Authenticate requires a valid bearer token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.reject(w, "missing_header", domain.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.reject(w, "malformed_header", domain.ErrUnauthorized)
			return
		}

		principal, err := m.resolver.Principal(parts[1])
		if err != nil {
			reason := "invalid_token"
			if errors.Is(err, domain.ErrExpiredToken) {
				reason = "expired_token"
			}
			m.reject(w, reason, err)
			return
		}

		ctx := domain.WithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, reason string, err error) {
	if m.metrics != nil {
		m.metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
	writeError(w, http.StatusUnauthorized, "unauthorized", err)
}

// HeaderPrincipal trusts the X-Principal header. Only mount it when
// authentication is disabled. Requests without the header continue
// anonymously and are rejected by operations that need a signer.
func HeaderPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(PrincipalHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := domain.ParseIdentity(raw)
		if err != nil || id.IsZero() {
			writeError(w, http.StatusUnauthorized, "unauthorized", domain.ErrInvalidIdentity)
			return
		}

		ctx := domain.WithPrincipal(r.Context(), domain.Principal{Identity: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Code:    int(domain.CodeOf(err)),
		Message: err.Error(),
	})
}
