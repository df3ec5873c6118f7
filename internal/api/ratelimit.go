package api

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// rateLimit rejects requests with 429 once the token bucket is empty.
// A nil limiter disables limiting.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || s.limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		s.metrics.rateLimited.Inc()
		retry := time.Second
		if lim := s.limiter.Limit(); lim > 0 && lim < 1 {
			retry = time.Duration(float64(time.Second) / float64(lim))
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
	})
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
