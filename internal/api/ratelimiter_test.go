package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticLimiter struct {
	allow bool
	calls int
}

func (s *staticLimiter) Allow() bool {
	s.calls++
	return s.allow
}

func TestRateLimitedEnvironmentReturnsJSONError(t *testing.T) {
	limiter := &staticLimiter{allow: false}
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(limiter))

	req := httptest.NewRequest(http.MethodGet, "/api/environment", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected JSON body, got content type %q", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected rate-limited response to carry a request id")
	}
	if rec.Header().Get("ETag") != "" {
		t.Fatalf("rate-limited response must not reach the environment handler")
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error != "Too many requests" || resp.Details == "" {
		t.Fatalf("unexpected error body %+v", resp)
	}
	if limiter.calls != 1 {
		t.Fatalf("expected limiter to be consulted once, got %d", limiter.calls)
	}
}

func TestRateLimitAppliesToModuleAndPreflight(t *testing.T) {
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(&staticLimiter{allow: false}))

	for _, method := range []string{http.MethodGet, http.MethodOptions} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, "/environment.js", nil))
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("%s: expected 429, got %d", method, rec.Code)
		}
	}
}

func TestAllowedRequestReachesEnvironment(t *testing.T) {
	limiter := &staticLimiter{allow: true}
	router := newTestRouter(t, WithLogging(false), WithRateLimiter(limiter))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/environment", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("ETag") == "" {
		t.Fatalf("expected environment handler to run")
	}
}

func TestNewTokenBucketLimiterClampsInvalidValues(t *testing.T) {
	limiter := newTokenBucketLimiter(0, 0)
	if !limiter.Allow() {
		t.Fatalf("expected first request to be allowed")
	}
	if limiter.Allow() {
		t.Fatalf("expected burst to be clamped to one")
	}

	var nilAdapter *limiterAdapter
	if !nilAdapter.Allow() {
		t.Fatalf("nil limiter must allow every request")
	}
}
