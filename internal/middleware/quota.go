package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aiworkforce/dashboard-server-go/internal/audit"
	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/httputil"
	"github.com/aiworkforce/dashboard-server-go/internal/redis"
	"github.com/aiworkforce/dashboard-server-go/internal/trial"
)

type UsageCounter interface {
	Consume(ctx context.Context, key string, limit int) (allowed bool, used int, err error)
}

// QuotaMiddleware enforces the trial's daily request limit. Expired trials are
// refused outright. Users outside trial gating pass through untouched.
type QuotaMiddleware struct {
	counter UsageCounter
	now     func() time.Time
}

func NewQuotaMiddleware(counter UsageCounter) *QuotaMiddleware {
	return &QuotaMiddleware{counter: counter, now: time.Now}
}

func (m *QuotaMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSession(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}

		now := m.now()
		result, err := trial.Evaluate(sess.TrialStartDate, sess.TrialStatus, now)
		if errors.Is(err, trial.ErrNoTrialFound) || result.Limits == nil {
			next.ServeHTTP(w, r)
			return
		}

		if result.Expired || sess.IsTrialExpired {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventTrialExpired, Email: sess.UserEmail})
			httputil.WriteError(w, apperrors.TrialExpired())
			return
		}

		limit := result.Limits.MaxRequestsPerDay
		allowed, used, err := m.counter.Consume(r.Context(), redis.UsageKey(sess.UserEmail, now), limit)
		if err != nil {
			log.Warn().Err(err).Str("email", sess.UserEmail).Msg("usage counter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-Trial-Requests-Limit", strconv.Itoa(limit))
		w.Header().Set("X-Trial-Requests-Remaining", strconv.Itoa(remaining))

		if !allowed {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventQuotaExceeded,
				Email:   sess.UserEmail,
				Details: map[string]interface{}{"limit": limit},
			})
			httputil.WriteError(w, apperrors.QuotaExceeded("maxRequestsPerDay"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
