package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/service"
)

type AgentHandler struct {
	agentService *service.AgentService
}

func NewAgentHandler(agentService *service.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

func (h *AgentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/models", h.Models)
	r.Get("/{agentID}", h.Get)
	r.Put("/{agentID}", h.Update)
	r.Delete("/{agentID}", h.Delete)

	return r
}

// GET /api/agents
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	agents, err := h.agentService.List(r.Context(), sess, ParsePagination(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

// POST /api/agents
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	var params model.AgentParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	agent, err := h.agentService.Create(r.Context(), sess, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

// GET /api/agents/{agentID}
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	id, ok := resourceID(w, r, "agentID")
	if !ok {
		return
	}

	agent, err := h.agentService.Get(r.Context(), sess, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// PUT /api/agents/{agentID}
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	id, ok := resourceID(w, r, "agentID")
	if !ok {
		return
	}

	var params model.AgentParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, err)
		return
	}

	agent, err := h.agentService.Update(r.Context(), sess, id, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// DELETE /api/agents/{agentID}
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	id, ok := resourceID(w, r, "agentID")
	if !ok {
		return
	}

	if err := h.agentService.Delete(r.Context(), sess, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GET /api/agents/models
func (h *AgentHandler) Models(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}

	models, err := h.agentService.Models(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models)
}
