package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aiworkforce/dashboard-server-go/internal/audit"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

type BillingBackend interface {
	GetSubscription(ctx context.Context, token string) (*model.Subscription, error)
	CreateCheckoutSession(ctx context.Context, token string, params model.CheckoutParams) (*model.RedirectSession, error)
	CreatePortalSession(ctx context.Context, token string, params model.PortalParams) (*model.RedirectSession, error)
	ListInvoices(ctx context.Context, token string) ([]model.Invoice, error)
}

type SettingsBackend interface {
	UpdateProfile(ctx context.Context, token string, params model.ProfileParams) (*model.Profile, error)
	ChangePassword(ctx context.Context, token string, params model.PasswordParams) error
}

type BillingHandler struct {
	backend BillingBackend
}

func NewBillingHandler(backend BillingBackend) *BillingHandler {
	return &BillingHandler{backend: backend}
}

func (h *BillingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/subscription", h.Subscription)
	r.Post("/checkout", h.Checkout)
	r.Post("/portal", h.Portal)
	r.Get("/invoices", h.Invoices)

	return r
}

func (h *BillingHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	sub, err := h.backend.GetSubscription(r.Context(), sess.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	var params model.CheckoutParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	redirect, err := h.backend.CreateCheckoutSession(r.Context(), sess.AccessToken, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redirect)
}

func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	var params model.PortalParams
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &params); err != nil {
			writeError(w, err)
			return
		}
	}

	redirect, err := h.backend.CreatePortalSession(r.Context(), sess.AccessToken, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redirect)
}

func (h *BillingHandler) Invoices(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	invoices, err := h.backend.ListInvoices(r.Context(), sess.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

type SettingsHandler struct {
	backend SettingsBackend
}

func NewSettingsHandler(backend SettingsBackend) *SettingsHandler {
	return &SettingsHandler{backend: backend}
}

func (h *SettingsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Put("/profile", h.UpdateProfile)
	r.Post("/password", h.ChangePassword)

	return r
}

// PUT /api/settings/profile. The session keeps the old name until the next
// sign-in.
func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	var params model.ProfileParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.backend.UpdateProfile(r.Context(), sess.AccessToken, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// POST /api/settings/password
func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	var params model.PasswordParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	if err := h.backend.ChangePassword(r.Context(), sess.AccessToken, params); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventPasswordChange, Email: sess.UserEmail})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
