package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	TrialStartDate model.Timestamp `json:"trial_start_date"`
	TrialStatus    string          `json:"trial_status"`
	IsTrialExpired bool            `json:"is_trial_expired"`
}

type googleUpsertRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	GoogleID  string `json:"google_id"`
	Picture   string `json:"picture,omitempty"`
}

type googleUpsertResponse struct {
	AccessToken    string          `json:"access_token"`
	TrialStartDate model.Timestamp `json:"trial_start_date"`
	TrialStatus    string          `json:"trial_status"`
	IsTrialExpired bool            `json:"is_trial_expired"`
}

// Login exchanges credentials for an access token and loads the profile.
// Any upstream failure aborts the flow with the backend's detail message.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" {
		return nil, apperrors.MissingRequired("email")
	}
	if password == "" {
		return nil, apperrors.MissingRequired("password")
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var token tokenResponse
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   strings.NewReader(form.Encode()),
		ctype:  "application/x-www-form-urlencoded",
	}, "login", &token)
	if err != nil {
		return nil, authFailure(err)
	}
	if token.AccessToken == "" {
		return nil, apperrors.Decode("login", errors.New("access_token is missing"))
	}

	user, err := c.Me(ctx, token.AccessToken)
	if err != nil {
		return nil, authFailure(err)
	}
	return user, nil
}

// Me fetches the profile behind an access token.
func (c *Client) Me(ctx context.Context, accessToken string) (*model.User, error) {
	var me userResponse
	if err := c.getJSON(ctx, "/users/me", accessToken, nil, "user", &me); err != nil {
		return nil, err
	}
	if me.Email == "" {
		return nil, apperrors.Decode("user", errors.New("email is missing"))
	}

	return &model.User{
		Email:          me.Email,
		FirstName:      me.FirstName,
		LastName:       me.LastName,
		AccessToken:    accessToken,
		TrialStartDate: me.TrialStartDate.Ptr(),
		TrialStatus:    model.TrialStatus(me.TrialStatus),
		IsTrialExpired: me.IsTrialExpired,
	}, nil
}

// GoogleUpsert registers or updates a Google user with the backend and returns
// the in-flight user with the backend token and trial fields merged in.
func (c *Client) GoogleUpsert(ctx context.Context, profile *model.GoogleProfile) (*model.User, error) {
	if profile == nil || profile.Email == "" {
		return nil, apperrors.MissingRequired("email")
	}

	first, last := profile.GivenName, profile.FamilyName
	if first == "" && last == "" {
		first, last = splitName(profile.Name)
	}

	user := &model.User{
		Email:     profile.Email,
		FirstName: first,
		LastName:  last,
	}

	var resp googleUpsertResponse
	err := c.sendJSON(ctx, http.MethodPost, "/auth/google", "", googleUpsertRequest{
		Email:     profile.Email,
		Name:      profile.Name,
		FirstName: first,
		LastName:  last,
		GoogleID:  profile.ID,
		Picture:   profile.Picture,
	}, "google sign-in", &resp)
	if err != nil {
		return nil, authFailure(err)
	}
	if resp.AccessToken == "" {
		return nil, apperrors.Decode("google sign-in", errors.New("access_token is missing"))
	}

	user.AccessToken = resp.AccessToken
	user.TrialStartDate = resp.TrialStartDate.Ptr()
	user.TrialStatus = model.TrialStatus(resp.TrialStatus)
	user.IsTrialExpired = resp.IsTrialExpired
	return user, nil
}

func (c *Client) Register(ctx context.Context, params model.RegisterParams) error {
	switch {
	case params.Email == "":
		return apperrors.MissingRequired("email")
	case params.Password == "":
		return apperrors.MissingRequired("password")
	}
	return c.sendJSON(ctx, http.MethodPost, "/auth/register", "", params, "registration", nil)
}

// authFailure turns upstream errors into AuthenticationFailed with the detail
// unchanged. Transport and decode errors pass through.
func authFailure(err error) error {
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeUpstream {
		return err
	}
	failed := apperrors.AuthenticationFailed(appErr.Message)
	failed.Status = appErr.Status
	return failed
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, " "); i > 0 {
		return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:])
	}
	return name, ""
}
