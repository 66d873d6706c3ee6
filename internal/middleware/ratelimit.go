package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/aiworkforce/dashboard-server-go/internal/audit"
	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/httputil"
	"github.com/aiworkforce/dashboard-server-go/internal/redis"
)

type RateChecker interface {
	Allow(ctx context.Context, key string, limit int) (redis.Decision, error)
}

// RateLimitMiddleware limits API requests per signed-in user, or per client
// IP for anonymous requests. Redis failures let the request through.
type RateLimitMiddleware struct {
	limiter RateChecker
	limit   int
}

func NewRateLimitMiddleware(limiter RateChecker, limit int) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, limit: limit}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + audit.ClientIP(r)
		var email string
		if sess := GetSession(r.Context()); sess != nil {
			email = sess.UserEmail
			key = "user:" + email
		}

		decision, err := m.limiter.Allow(r.Context(), key, m.limit)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt, 10))

		if !decision.Allowed {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventRateLimitExceed,
				Email:   email,
				Details: map[string]interface{}{"path": r.URL.Path},
			})
			w.Header().Set("Retry-After", "60")
			httputil.WriteError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}
