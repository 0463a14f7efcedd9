package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/2beens/portfolio/internal/middleware"
	"github.com/2beens/portfolio/internal/telemetry/metrics"
)

type fakeLimiter struct {
	allowed int
	counts  map[string]int
	err     error
}

func (l *fakeLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.counts[key]++
	if l.counts[key] > l.allowed {
		return &redis_rate.Result{Limit: limit, Allowed: 0, RetryAfter: 1500 * time.Millisecond}, nil
	}
	return &redis_rate.Result{Limit: limit, Allowed: 1, Remaining: l.allowed - l.counts[key]}, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &fakeLimiter{allowed: 2, counts: map[string]int{}}
	metricsManager := metrics.NewTestManager()
	handler := middleware.RateLimit(limiter, "public-works", 2, metricsManager)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	request := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/works", nil)
		req.RemoteAddr = ip + ":4242"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, request("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, request("10.0.0.1").Code)

	rr := request("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"detail":"too many requests"}`, rr.Body.String())

	// other clients keep their own budget
	assert.Equal(t, http.StatusOK, request("10.0.0.2").Code)

	assert.Equal(t, 3, limiter.counts["public-works:10.0.0.1"])
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests.WithLabelValues("public-works")))
}

func TestRateLimit_LimiterError(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	called := false
	handler := middleware.RateLimit(limiter, "login", 5, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/login", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, called)
}

func TestRateLimit_ForgedHeadersShareSocketBudget(t *testing.T) {
	limiter := &fakeLimiter{allowed: 5, counts: map[string]int{}}
	handler := middleware.ClientIP(false)(
		middleware.RateLimit(limiter, "login", 5, nil)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusSeeOther)
			}),
		),
	)

	var codes []int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Real-Ip", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("192.0.2.%d", i+1))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{303, 303, 303, 303, 303, 429}, codes)
	assert.Len(t, limiter.counts, 1)
	assert.Equal(t, 6, limiter.counts["login:203.0.113.9"])
}

func TestRateLimit_TrustedProxyKeysOnForwardedClient(t *testing.T) {
	limiter := &fakeLimiter{allowed: 1, counts: map[string]int{}}
	handler := middleware.ClientIP(true)(
		middleware.RateLimit(limiter, "login", 1, nil)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}),
		),
	)

	request := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "172.20.0.1:60102"
		req.Header.Set("X-Forwarded-For", forwarded)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, request("10.9.9.9, 198.51.100.7"))
	// a client prepending its own entry still lands on the proxy's hop
	assert.Equal(t, http.StatusTooManyRequests, request("10.1.1.1, 198.51.100.7"))
	assert.Equal(t, http.StatusOK, request("198.51.100.8"))
	assert.Equal(t, 2, limiter.counts["login:198.51.100.7"])
}

func TestRateLimit_UnparsableAddrKeepsOwnBucket(t *testing.T) {
	limiter := &fakeLimiter{allowed: 1, counts: map[string]int{}}
	handler := middleware.ClientIP(false)(
		middleware.RateLimit(limiter, "login", 1, nil)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
		),
	)

	for _, addr := range []string{"@unix-a", "@unix-b"} {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Len(t, limiter.counts, 2)
}
