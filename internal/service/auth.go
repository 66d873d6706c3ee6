package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/aiworkforce/dashboard-server-go/internal/config"
	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/repository"
	"github.com/aiworkforce/dashboard-server-go/internal/session"
	"github.com/aiworkforce/dashboard-server-go/internal/util"
)

const (
	GoogleCallbackPath    = "/api/auth/callback/google"
	DefaultSignInRedirect = "/dashboard"
	googleUserInfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	ErrInvalidState          = errors.New("invalid or expired OAuth state")
	ErrOAuthProviderError    = errors.New("OAuth provider returned an error")
	ErrProviderNotConfigured = errors.New("OAuth provider not configured")
	ErrEmailNotVerified      = errors.New("OAuth email is not verified")
)

type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*model.User, error)
	GoogleUpsert(ctx context.Context, profile *model.GoogleProfile) (*model.User, error)
	Register(ctx context.Context, params model.RegisterParams) error
}

type SessionIssuer interface {
	Issue(user *model.User) (string, *session.Claims, error)
}

// SignIn is a freshly issued session.
type SignIn struct {
	Token    string
	Claims   *session.Claims
	Redirect string
}

type AuthService struct {
	backend     AuthBackend
	sessions    SessionIssuer
	stateRepo   repository.OAuthStateRepository
	google      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	now         func() time.Time
}

func NewAuthService(
	backend AuthBackend,
	sessions SessionIssuer,
	stateRepo repository.OAuthStateRepository,
	google *oauth2.Config,
) *AuthService {
	return &AuthService{
		backend:     backend,
		sessions:    sessions,
		stateRepo:   stateRepo,
		google:      google,
		userInfoURL: googleUserInfoURL,
		now:         time.Now,
	}
}

// GoogleOAuthConfig returns nil when Google sign-in is not configured.
func GoogleOAuthConfig(cfg *config.Config) *oauth2.Config {
	if !cfg.GoogleEnabled() {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     endpoints.Google,
		RedirectURL:  strings.TrimRight(cfg.OAuthRedirectBase, "/") + GoogleCallbackPath,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func (s *AuthService) GoogleEnabled() bool {
	return s.google != nil
}

// SignInWithCredentials exchanges email and password with the backend and
// issues a session for the returned user.
func (s *AuthService) SignInWithCredentials(ctx context.Context, email, password string) (*SignIn, error) {
	user, err := s.backend.Login(ctx, util.NormalizeEmail(email), password)
	if err != nil {
		return nil, err
	}
	return s.issue(user, DefaultSignInRedirect)
}

func (s *AuthService) Register(ctx context.Context, params model.RegisterParams) error {
	params.Email = util.NormalizeEmail(params.Email)
	if params.Email != "" && !util.IsValidEmail(params.Email) {
		return apperrors.InvalidInput("email", "must be a valid email address")
	}
	return s.backend.Register(ctx, params)
}

// GoogleAuthURL stores a one-time state with a PKCE verifier and returns the
// consent URL. redirectTo is where the browser lands after sign-in.
func (s *AuthService) GoogleAuthURL(ctx context.Context, redirectTo string) (string, error) {
	if s.google == nil {
		return "", ErrProviderNotConfigured
	}

	state, err := util.GenerateToken()
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()
	redirect := SafeRedirect(redirectTo)

	_, err = s.stateRepo.Create(ctx, model.CreateOAuthStateParams{
		State:        state,
		Provider:     model.OAuthProviderGoogle,
		CodeVerifier: &verifier,
		RedirectURL:  &redirect,
		ExpiresAt:    s.now().Add(config.OAuthStateTTL),
	})
	if err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}

	return s.google.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	), nil
}

// HandleGoogleCallback validates the state, exchanges the code, upserts the
// user with the backend and issues a session.
func (s *AuthService) HandleGoogleCallback(ctx context.Context, state, code string) (*SignIn, error) {
	if s.google == nil {
		return nil, ErrProviderNotConfigured
	}
	if state == "" || code == "" {
		return nil, ErrInvalidState
	}

	stored, err := s.stateRepo.Consume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}
	if stored == nil || stored.Provider != model.OAuthProviderGoogle {
		return nil, ErrInvalidState
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	var opts []oauth2.AuthCodeOption
	if stored.CodeVerifier != nil {
		opts = append(opts, oauth2.VerifierOption(*stored.CodeVerifier))
	}
	token, err := s.google.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthProviderError, err)
	}

	profile, err := s.fetchGoogleProfile(ctx, token)
	if err != nil {
		return nil, err
	}
	if !profile.VerifiedEmail {
		return nil, ErrEmailNotVerified
	}

	user, err := s.backend.GoogleUpsert(ctx, profile)
	if err != nil {
		return nil, err
	}

	redirect := DefaultSignInRedirect
	if stored.RedirectURL != nil {
		redirect = SafeRedirect(*stored.RedirectURL)
	}
	return s.issue(user, redirect)
}

func (s *AuthService) fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (*model.GoogleProfile, error) {
	client := s.google.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthProviderError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: userinfo status %d: %s", ErrOAuthProviderError, resp.StatusCode, body)
	}

	var profile model.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", ErrOAuthProviderError, err)
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: userinfo has no email", ErrOAuthProviderError)
	}
	return &profile, nil
}

func (s *AuthService) issue(user *model.User, redirect string) (*SignIn, error) {
	token, claims, err := s.sessions.Issue(user)
	if err != nil {
		return nil, err
	}
	return &SignIn{Token: token, Claims: claims, Redirect: redirect}, nil
}

// SafeRedirect keeps only same-site relative paths.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return DefaultSignInRedirect
	}
	return target
}
