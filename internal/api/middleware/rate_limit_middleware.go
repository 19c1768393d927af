package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/ordercenter/internal/api/response"
)

type Limiter interface {
	Allow() bool
}

// NewRateLimitMiddleware 全域限流, 超過時回 429
func NewRateLimitMiddleware(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				response.ErrorJSON(w, http.StatusTooManyRequests, "Too Many Requests", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
