package backend

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

func (c *Client) GetSubscription(ctx context.Context, token string) (*model.Subscription, error) {
	var sub model.Subscription
	if err := c.getJSON(ctx, "/billing/subscription", token, nil, "subscription", &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, token string, params model.CheckoutParams) (*model.RedirectSession, error) {
	if params.PriceID == "" {
		return nil, apperrors.MissingRequired("price_id")
	}
	return c.redirect(ctx, "/billing/checkout", token, params, "checkout session")
}

func (c *Client) CreatePortalSession(ctx context.Context, token string, params model.PortalParams) (*model.RedirectSession, error) {
	return c.redirect(ctx, "/billing/portal", token, params, "billing portal session")
}

func (c *Client) ListInvoices(ctx context.Context, token string) ([]model.Invoice, error) {
	var invoices []model.Invoice
	if err := c.getJSON(ctx, "/billing/invoices", token, nil, "invoice list", &invoices); err != nil {
		return nil, err
	}
	if invoices == nil {
		invoices = []model.Invoice{}
	}
	return invoices, nil
}

func (c *Client) GetUsageStats(ctx context.Context, token string) (*model.UsageStats, error) {
	var usage model.UsageStats
	if err := c.getJSON(ctx, "/dashboard/usage", token, nil, "usage stats", &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, params model.ProfileParams) (*model.Profile, error) {
	if params.FirstName == "" {
		return nil, apperrors.MissingRequired("first_name")
	}
	var profile model.Profile
	if err := c.sendJSON(ctx, http.MethodPut, "/users/me", token, params, "profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) ChangePassword(ctx context.Context, token string, params model.PasswordParams) error {
	switch {
	case params.CurrentPassword == "":
		return apperrors.MissingRequired("current_password")
	case params.NewPassword == "":
		return apperrors.MissingRequired("new_password")
	}
	return c.sendJSON(ctx, http.MethodPost, "/users/me/password", token, params, "password change", nil)
}

func (c *Client) redirect(ctx context.Context, path, token string, payload any, what string) (*model.RedirectSession, error) {
	var session model.RedirectSession
	if err := c.sendJSON(ctx, http.MethodPost, path, token, payload, what, &session); err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, apperrors.Decode(what, errors.New("url is missing"))
	}
	return &session, nil
}
