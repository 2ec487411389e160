package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/colemarsh/gatehouse/internal/auth"
	"github.com/colemarsh/gatehouse/internal/ratelimit"
	pkghttp "github.com/colemarsh/gatehouse/pkg/http"
)

// rateLimitResponse is the 429 body. reset_at tells the client when the
// current window ends.
type rateLimitResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	ResetAt string `json:"reset_at"`
}

// RateLimit enforces the per-class limiter. The counter key is the
// authenticated user when claims are present and the client IP otherwise, so
// pre-auth endpoints are limited per source address and authenticated traffic
// per identity.
func RateLimit(limiter *ratelimit.Limiter, class string, ipConfig *pkghttp.IPConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := clientKeyFor(r, ipConfig)

			decision := limiter.Allow(clientKey, class)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				retryAfter := int(time.Until(decision.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(rateLimitResponse{
					Error:   "rate_limit_exceeded",
					Message: "Too many requests. Please try again later.",
					ResetAt: decision.ResetAt.UTC().Format(time.RFC3339),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKeyFor picks the limiter key for a request
func clientKeyFor(r *http.Request, ipConfig *pkghttp.IPConfig) string {
	if claims := auth.GetUserFromContext(r); claims != nil {
		return "user:" + claims.UserID
	}
	return "ip:" + pkghttp.ExtractClientIP(r, ipConfig)
}

// GlobalRateLimit is the coarse router-wide backstop in front of the
// per-class limiter.
func GlobalRateLimit(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","message":"Rate limit exceeded"}`))
		}),
	)
}
