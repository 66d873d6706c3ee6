package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/aiworkforce/dashboard-server-go/internal/audit"
	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/middleware"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/service"
	"github.com/aiworkforce/dashboard-server-go/internal/session"
)

// SessionManager reads and re-issues session tokens.
type SessionManager interface {
	Read(raw string) (*model.Session, *session.Claims, error)
	NeedsRefresh(claims *session.Claims) bool
	Refresh(claims *session.Claims) (string, *session.Claims, error)
	OnSessionRead(claims *session.Claims) *model.Session
	MaxAge() time.Duration
}

type AuthHandler struct {
	authService  *service.AuthService
	sessions     SessionManager
	loginLimiter *middleware.LoginRateLimiter
	isProduction bool
}

func NewAuthHandler(
	authService *service.AuthService,
	sessions SessionManager,
	loginLimiter *middleware.LoginRateLimiter,
	isProduction bool,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		sessions:     sessions,
		loginLimiter: loginLimiter,
		isProduction: isProduction,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginLimiter.Handler).Post("/callback/credentials", h.CredentialsCallback)
	r.With(h.loginLimiter.Handler).Post("/register", h.Register)
	r.Get("/signin/google", h.GoogleSignIn)
	r.Get("/callback/google", h.GoogleCallback)
	r.Get("/session", h.Session)
	r.Post("/signout", h.SignOut)
	r.Get("/providers", h.Providers)
	r.Get("/csrf", h.CSRF)

	return r
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl"`
}

// POST /api/auth/callback/credentials
func (h *AuthHandler) CredentialsCallback(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, apperrors.ValidationError("Invalid form body"))
			return
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
		req.CallbackURL = r.PostForm.Get("callbackUrl")
	}

	if strings.TrimSpace(req.Email) == "" {
		writeError(w, apperrors.MissingRequired("email"))
		return
	}
	if req.Password == "" {
		writeError(w, apperrors.MissingRequired("password"))
		return
	}

	result, err := h.authService.SignInWithCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventLoginFailure,
			Email:   req.Email,
			Details: map[string]interface{}{"code": string(apperrors.GetCode(err))},
		})
		if errors.Is(err, session.ErrSignInRejected) {
			err = apperrors.AuthenticationFailed("Authentication failed")
		}
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, result.Token, h.sessions.MaxAge(), h.isProduction)
	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess, Email: result.Claims.Email})

	redirect := result.Redirect
	if req.CallbackURL != "" {
		redirect = service.SafeRedirect(req.CallbackURL)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":     redirect,
		"session": h.sessions.OnSessionRead(result.Claims),
	})
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params model.RegisterParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}
	switch {
	case strings.TrimSpace(params.Email) == "":
		writeError(w, apperrors.MissingRequired("email"))
		return
	case params.Password == "":
		writeError(w, apperrors.MissingRequired("password"))
		return
	}

	if err := h.authService.Register(r.Context(), params); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventRegister, Email: params.Email})
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// GET /api/auth/signin/google
func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.authService.GoogleAuthURL(r.Context(), r.URL.Query().Get("callbackUrl"))
	if err != nil {
		if errors.Is(err, service.ErrProviderNotConfigured) {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "Google sign-in not configured"})
			return
		}
		log.Error().Err(err).Msg("failed to generate Google auth URL")
		writeError(w, apperrors.Internal("Failed to initiate sign-in"))
		return
	}

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// GET /api/auth/callback/google
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errMsg := q.Get("error"); errMsg != "" {
		log.Warn().Str("error", errMsg).Msg("Google returned an OAuth error")
		h.oauthFailure(w, r, "OAuthCallback", errMsg)
		return
	}

	result, err := h.authService.HandleGoogleCallback(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("Google callback failed")
		code := "OAuthCallback"
		switch {
		case errors.Is(err, service.ErrInvalidState):
			code = "OAuthState"
		case errors.Is(err, service.ErrEmailNotVerified):
			code = "EmailNotVerified"
		case errors.Is(err, session.ErrSignInRejected), apperrors.IsAppError(err):
			code = "AccessDenied"
		}
		h.oauthFailure(w, r, code, err.Error())
		return
	}

	middleware.SetSessionCookie(w, result.Token, h.sessions.MaxAge(), h.isProduction)
	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventOAuthLogin,
		Email:    result.Claims.Email,
		Provider: model.OAuthProviderGoogle,
	})

	http.Redirect(w, r, result.Redirect, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) oauthFailure(w http.ResponseWriter, r *http.Request, code, reason string) {
	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventOAuthFailure,
		Provider: model.OAuthProviderGoogle,
		Details:  map[string]interface{}{"code": code, "reason": reason},
	})
	http.Redirect(w, r, middleware.SignInPath+"?error="+url.QueryEscape(code), http.StatusTemporaryRedirect)
}

// GET /api/auth/session returns the session, or an empty object when there
// is none. Tokens older than the update age are re-issued.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	raw := middleware.SessionToken(r)
	if raw == "" {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}

	sess, claims, err := h.sessions.Read(raw)
	if err != nil {
		log.Debug().Err(err).Msg("discarding invalid session cookie")
		middleware.ClearSessionCookie(w, h.isProduction)
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}

	if h.sessions.NeedsRefresh(claims) {
		token, refreshed, err := h.sessions.Refresh(claims)
		if err != nil {
			log.Error().Err(err).Str("email", claims.Email).Msg("failed to refresh session")
		} else {
			middleware.SetSessionCookie(w, token, h.sessions.MaxAge(), h.isProduction)
			sess = h.sessions.OnSessionRead(refreshed)
		}
	}

	writeJSON(w, http.StatusOK, sess)
}

// POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	event := audit.Event{Type: audit.EventLogout}
	if sess := middleware.GetSession(r.Context()); sess != nil {
		event.Email = sess.UserEmail
	}
	audit.LogFromRequest(r, event)

	middleware.ClearSessionCookie(w, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]string{"url": middleware.SignInPath})
}

type provider struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SignInURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}

// GET /api/auth/providers
func (h *AuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	providers := map[string]provider{
		"credentials": {
			ID:          "credentials",
			Name:        "Credentials",
			Type:        "credentials",
			SignInURL:   "/api/auth/callback/credentials",
			CallbackURL: "/api/auth/callback/credentials",
		},
	}
	if h.authService.GoogleEnabled() {
		providers[model.OAuthProviderGoogle] = provider{
			ID:          model.OAuthProviderGoogle,
			Name:        "Google",
			Type:        "oauth",
			SignInURL:   "/api/auth/signin/google",
			CallbackURL: service.GoogleCallbackPath,
		}
	}
	writeJSON(w, http.StatusOK, providers)
}

// GET /api/auth/csrf
func (h *AuthHandler) CSRF(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"csrfToken": middleware.GetCSRFToken(r.Context())})
}
