package api

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// limiter is a process-wide token bucket for the upload routes. A nil
// limiter admits everything.
type limiter struct {
	bucket *rate.Limiter
}

func newLimiter(rps float64, burst int) *limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &limiter{bucket: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *limiter) allow() bool {
	return l == nil || l.bucket.Allow()
}

// retryAfter is the whole number of seconds until one token is available.
func (l *limiter) retryAfter() int {
	secs := int(1/float64(l.bucket.Limit()) + 0.999)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow() {
			s.logger.Warn("rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			w.Header().Set("Retry-After", strconv.Itoa(s.limiter.retryAfter()))
			s.writeError(w, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
