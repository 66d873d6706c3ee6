package model

import (
	"time"
)

type TrialStatus string

const (
	TrialStatusActive    TrialStatus = "active"
	TrialStatusExpired   TrialStatus = "expired"
	TrialStatusFreeTrial TrialStatus = "free_trial"
)

// User is the authenticated user record assembled from the backend during sign-in.
type User struct {
	Email          string
	FirstName      string
	LastName       string
	AccessToken    string
	TrialStartDate *time.Time
	TrialStatus    TrialStatus
	IsTrialExpired bool
}

// Session is the externally visible projection of the session token.
type Session struct {
	UserEmail      string      `json:"email"`
	Name           string      `json:"name"`
	FirstName      string      `json:"firstName"`
	LastName       string      `json:"lastName"`
	AccessToken    string      `json:"-"`
	TrialStartDate *time.Time  `json:"trialStartDate,omitempty"`
	TrialStatus    TrialStatus `json:"trialStatus,omitempty"`
	IsTrialExpired bool        `json:"isTrialExpired"`
	ExpiresAt      time.Time   `json:"expires"`
}
