package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := Handler{
		Limiter: Limiter{Client: client, Prefix: "rl:"},
		Config: Config{
			Key:    func(*http.Request) string { return "one" },
			Window: time.Second,
			Max:    1,
		},
	}
	wrapped := h.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestMiddlewareSkipExemptsRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := Handler{
		Limiter: Limiter{Client: client, Prefix: "rl:"},
		Config: Config{
			Key:    func(*http.Request) string { return "one" },
			Window: time.Second,
			Max:    1,
			Skip:   func(r *http.Request) bool { return r.URL.Path == "/health/live" },
		},
	}
	wrapped := h.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestMiddlewareFailsOpenOnLimiterError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	var reported error
	h := Handler{
		Limiter: Limiter{Client: client, Prefix: "rl:"},
		Config: Config{
			Key:    func(*http.Request) string { return "one" },
			Window: time.Second,
			Max:    1,
		},
		OnError: func(err error) { reported = err },
	}
	wrapped := h.Middleware(okHandler())

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Error(t, reported)
}
