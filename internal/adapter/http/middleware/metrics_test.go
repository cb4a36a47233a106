package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		pattern    string
		statusCode string
	}{
		{
			name:       "uses chi pattern for wallet owner",
			method:     http.MethodGet,
			path:       "/api/v1/wallets/ABC123",
			pattern:    "/api/v1/wallets/{owner}",
			statusCode: "418",
		},
		{
			name:       "unknown path is bucketed",
			method:     http.MethodGet,
			path:       "/nope",
			pattern:    unmatchedRoute,
			statusCode: "404",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.NewWithRegistry(prometheus.NewRegistry())

			r := chi.NewRouter()
			r.Use(NewMetricsMiddleware(m).Wrap)
			r.Get("/api/v1/wallets/{owner}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			r.ServeHTTP(httptest.NewRecorder(), req)

			if got := testutil.ToFloat64(m.HTTPRequestsInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
			}

			counter := m.HTTPRequests.WithLabelValues(tc.method, tc.pattern, tc.statusCode)
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}

func TestMetricsMiddlewareNilMetricsPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	NewMetricsMiddleware(nil).Wrap(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if !called {
		t.Fatal("expected next handler to be invoked")
	}
}
