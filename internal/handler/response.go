package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/httputil"
	"github.com/aiworkforce/dashboard-server-go/internal/middleware"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/util"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.ValidationError("Request body is required")
		}
		return apperrors.ValidationError("Invalid request body").WithCause(err)
	}
	return nil
}

// requireSession writes 401 and returns nil when the request carries no session.
func requireSession(w http.ResponseWriter, r *http.Request) *model.Session {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return nil
	}
	return sess
}

// resourceID reads and validates a path parameter naming a backend resource.
func resourceID(w http.ResponseWriter, r *http.Request, param string) (string, bool) {
	id := chi.URLParam(r, param)
	if !util.IsValidResourceID(id) {
		writeError(w, apperrors.InvalidInput(param, "must be 1-64 letters, digits, '-' or '_'"))
		return "", false
	}
	return id, true
}
