package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Config describes how requests map onto limiter keys and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int

	// Skip exempts matching requests from limiting (health probes, metrics).
	Skip func(*http.Request) bool
}

// Handler applies the limiter in front of another handler. Limiter errors are
// reported through OnError and the request passes through: an unreachable
// Redis must not take the API down with it.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// Middleware enforces the configured limit and sets the X-RateLimit-* headers.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Config.Key == nil || (h.Config.Skip != nil && h.Config.Skip(r)) {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("X-RateLimit-Limit", strconv.Itoa(maxInt(h.Config.Max, 0)))
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			hdr.Set("Retry-After", strconv.Itoa(maxInt(int(time.Until(resetAt).Seconds()), 0)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
