package model

import (
	"time"
)

type OAuthState struct {
	ID           string    `db:"id"`
	State        string    `db:"state"`
	Provider     string    `db:"provider"`
	CodeVerifier *string   `db:"code_verifier"`
	RedirectURL  *string   `db:"redirect_url"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
}

type CreateOAuthStateParams struct {
	State        string
	Provider     string
	CodeVerifier *string
	RedirectURL  *string
	ExpiresAt    time.Time
}

// GoogleProfile is the subset of the Google userinfo response used for sign-in.
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

const OAuthProviderGoogle = "google"
