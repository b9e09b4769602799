package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/balance", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/api/balance", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/balance", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_DifferentStatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Post("/deduct-ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tests := []struct {
		method         string
		path           string
		expectedStatus string
	}{
		{"POST", "/deduct-ok", "200"},
		{"GET", "/missing", "404"},
		{"GET", "/broken", "500"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total for %s %s with status %s >= 1, got %f",
					tc.method, tc.path, tc.expectedStatus, val)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/api/balance", "/api/balance"},
		{"/healthz", "/healthz"},
	}

	for _, tc := range tests {
		result := normalizePath(tc.input)
		if result != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestLedgerMetrics_Registered(t *testing.T) {
	RegisterLedgerMetrics()

	DeductAttemptsTotal.WithLabelValues("ok").Inc()
	if val := testutil.ToFloat64(DeductAttemptsTotal.WithLabelValues("ok")); val < 1 {
		t.Errorf("expected deduct_attempts_total{outcome=ok} >= 1, got %f", val)
	}

	RequestsEarnedTotal.Add(1)
	if val := testutil.ToFloat64(RequestsEarnedTotal); val < 1 {
		t.Errorf("expected requests_earned_total >= 1, got %f", val)
	}

	WebsocketClients.Set(3)
	if val := testutil.ToFloat64(WebsocketClients); val != 3 {
		t.Errorf("expected websocket_clients=3, got %f", val)
	}
}
