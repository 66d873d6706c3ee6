package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/util"
)

// UpdateAge is how old a token may get before a session read re-issues it
// with a fresh expiry.
const UpdateAge = 24 * time.Hour

var (
	ErrSignInRejected = errors.New("sign-in rejected")
	ErrInvalidToken   = errors.New("invalid session token")
)

// Claims is the signed session payload. AccessToken is plaintext in memory
// and sealed with AES-GCM inside the signed token.
type Claims struct {
	Email          string            `json:"email"`
	FirstName      string            `json:"firstName,omitempty"`
	LastName       string            `json:"lastName,omitempty"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TrialStartDate *time.Time        `json:"trialStartDate,omitempty"`
	TrialStatus    model.TrialStatus `json:"trialStatus,omitempty"`
	IsTrialExpired bool              `json:"isTrialExpired"`
	jwt.RegisteredClaims
}

type Store struct {
	secret []byte
	cipher *util.Cipher
	maxAge time.Duration
	now    func() time.Time
}

func NewStore(secret string, maxAge time.Duration) (*Store, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	cipher, err := util.NewCipher(util.DeriveKey(secret, "session-access-token"))
	if err != nil {
		return nil, fmt.Errorf("create session cipher: %w", err)
	}
	return &Store{
		secret: []byte(util.DeriveKey(secret, "session-signing")),
		cipher: cipher,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

// SetClock replaces the store's time source.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

// OnSignIn authorizes a freshly authenticated user.
func (s *Store) OnSignIn(user *model.User) error {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("%w: missing email", ErrSignInRejected)
	}
	if user.AccessToken == "" {
		return fmt.Errorf("%w: missing access token", ErrSignInRejected)
	}
	return nil
}

// OnTokenIssue copies the user's identity, access token and trial fields into
// the token. It only acts on first issuance: once the token carries an access
// token, later calls leave it untouched.
func (s *Store) OnTokenIssue(claims *Claims, user *model.User) {
	if user == nil || claims.AccessToken != "" {
		return
	}
	claims.Email = user.Email
	claims.FirstName = user.FirstName
	claims.LastName = user.LastName
	claims.AccessToken = user.AccessToken
	claims.TrialStartDate = user.TrialStartDate
	claims.TrialStatus = user.TrialStatus
	claims.IsTrialExpired = user.IsTrialExpired
}

// OnSessionRead projects the token into the session visible to handlers.
func (s *Store) OnSessionRead(claims *Claims) *model.Session {
	session := &model.Session{
		UserEmail:      claims.Email,
		Name:           strings.TrimSpace(claims.FirstName + " " + claims.LastName),
		FirstName:      claims.FirstName,
		LastName:       claims.LastName,
		AccessToken:    claims.AccessToken,
		TrialStartDate: claims.TrialStartDate,
		TrialStatus:    claims.TrialStatus,
		IsTrialExpired: claims.IsTrialExpired,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return session
}

// Issue authorizes the user, builds the token on first issuance and signs it.
func (s *Store) Issue(user *model.User) (string, *Claims, error) {
	if err := s.OnSignIn(user); err != nil {
		return "", nil, err
	}

	claims := &Claims{}
	s.OnTokenIssue(claims, user)
	claims.ID = uuid.NewString()

	token, err := s.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Refresh re-signs existing claims with a new expiry. The payload, including
// the access token, is carried over unchanged.
func (s *Store) Refresh(claims *Claims) (string, *Claims, error) {
	refreshed := *claims
	s.OnTokenIssue(&refreshed, nil)
	token, err := s.sign(&refreshed)
	if err != nil {
		return "", nil, err
	}
	return token, &refreshed, nil
}

// NeedsRefresh reports whether the token was issued more than UpdateAge ago.
func (s *Store) NeedsRefresh(claims *Claims) bool {
	if claims.IssuedAt == nil {
		return true
	}
	return s.now().Sub(claims.IssuedAt.Time) > UpdateAge
}

func (s *Store) Decode(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.AccessToken != "" {
		plain, err := s.cipher.Open(claims.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		claims.AccessToken = plain
	}
	if claims.Email == "" || claims.AccessToken == "" {
		return nil, fmt.Errorf("%w: incomplete claims", ErrInvalidToken)
	}

	return claims, nil
}

// Read decodes the raw token and returns the visible session.
func (s *Store) Read(raw string) (*model.Session, *Claims, error) {
	claims, err := s.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	return s.OnSessionRead(claims), claims, nil
}

func (s *Store) sign(claims *Claims) (string, error) {
	now := s.now()
	wire := *claims
	wire.Subject = claims.Email
	wire.IssuedAt = jwt.NewNumericDate(now)
	wire.NotBefore = jwt.NewNumericDate(now)
	wire.ExpiresAt = jwt.NewNumericDate(now.Add(s.maxAge))

	sealed, err := s.cipher.Seal(claims.AccessToken)
	if err != nil {
		return "", fmt.Errorf("seal access token: %w", err)
	}
	wire.AccessToken = sealed

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &wire).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	claims.Subject = wire.Subject
	claims.IssuedAt = wire.IssuedAt
	claims.NotBefore = wire.NotBefore
	claims.ExpiresAt = wire.ExpiresAt
	return token, nil
}
