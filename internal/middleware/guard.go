package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/session"
)

const (
	SignInPath    = "/sign-in"
	DashboardPath = "/dashboard"
)

var publicPaths = map[string]bool{
	"/":        true,
	SignInPath: true,
	"/terms":   true,
	"/privacy": true,
}

var publicPrefixes = []string{
	"/api/auth",
	"/embed",
}

// IsPublicPath reports whether path is reachable without a session. Any path
// containing a dot is treated as a static asset.
func IsPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return strings.Contains(path, ".")
}

type SessionReader interface {
	Read(raw string) (*model.Session, *session.Claims, error)
}

// RouteGuard classifies each request path as public or protected and
// redirects based on whether the request carries a valid session. It keeps
// no state between requests.
type RouteGuard struct {
	sessions SessionReader
}

func NewRouteGuard(sessions SessionReader) *RouteGuard {
	return &RouteGuard{sessions: sessions}
}

func (g *RouteGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		sess := g.readSession(r)

		if sess == nil && !IsPublicPath(path) {
			http.Redirect(w, r, SignInPath, http.StatusFound)
			return
		}

		if sess != nil && (path == "/" || path == SignInPath) {
			http.Redirect(w, r, DashboardPath, http.StatusFound)
			return
		}

		if sess != nil {
			r = r.WithContext(WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

func (g *RouteGuard) readSession(r *http.Request) *model.Session {
	raw := SessionToken(r)
	if raw == "" {
		return nil
	}
	sess, _, err := g.sessions.Read(raw)
	if err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("route guard: ignoring invalid session token")
		return nil
	}
	return sess
}
