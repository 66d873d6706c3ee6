package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aiworkforce/dashboard-server-go/internal/backend"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

type DataSourceBackend interface {
	ListDataSources(ctx context.Context, token string, page backend.Page) ([]model.DataSource, error)
	GetDataSource(ctx context.Context, token, id string) (*model.DataSource, error)
	CreateDataSource(ctx context.Context, token string, params model.DataSourceParams) (*model.DataSource, error)
	UpdateDataSource(ctx context.Context, token, id string, params model.DataSourceParams) (*model.DataSource, error)
	DeleteDataSource(ctx context.Context, token, id string) error
	SyncDataSource(ctx context.Context, token, id string) (*model.DataSource, error)
}

type DataSourceHandler struct {
	backend DataSourceBackend
}

func NewDataSourceHandler(backend DataSourceBackend) *DataSourceHandler {
	return &DataSourceHandler{backend: backend}
}

func (h *DataSourceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{sourceID}", h.Get)
	r.Put("/{sourceID}", h.Update)
	r.Delete("/{sourceID}", h.Delete)
	r.Post("/{sourceID}/sync", h.Sync)

	return r
}

func (h *DataSourceHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	sources, err := h.backend.ListDataSources(r.Context(), sess.AccessToken, ParsePagination(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (h *DataSourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	var params model.DataSourceParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	source, err := h.backend.CreateDataSource(r.Context(), sess.AccessToken, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, source)
}

func (h *DataSourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	id, ok := resourceID(w, r, "sourceID")
	if !ok {
		return
	}

	source, err := h.backend.GetDataSource(r.Context(), sess.AccessToken, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, source)
}

func (h *DataSourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	id, ok := resourceID(w, r, "sourceID")
	if !ok {
		return
	}

	var params model.DataSourceParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	source, err := h.backend.UpdateDataSource(r.Context(), sess.AccessToken, id, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, source)
}

func (h *DataSourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	id, ok := resourceID(w, r, "sourceID")
	if !ok {
		return
	}

	if err := h.backend.DeleteDataSource(r.Context(), sess.AccessToken, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /api/data-sources/{sourceID}/sync
func (h *DataSourceHandler) Sync(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	id, ok := resourceID(w, r, "sourceID")
	if !ok {
		return
	}

	source, err := h.backend.SyncDataSource(r.Context(), sess.AccessToken, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, source)
}
