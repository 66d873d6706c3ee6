package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/service"
	"github.com/aiworkforce/dashboard-server-go/internal/sse"
)

type ChatHandler struct {
	relay       *service.ChatRelay
	agentChat   *service.AgentChatService
	transcripts *service.TranscriptService
	quota       func(http.Handler) http.Handler
}

func NewChatHandler(
	relay *service.ChatRelay,
	agentChat *service.AgentChatService,
	transcripts *service.TranscriptService,
	quota func(http.Handler) http.Handler,
) *ChatHandler {
	return &ChatHandler{
		relay:       relay,
		agentChat:   agentChat,
		transcripts: transcripts,
		quota:       quota,
	}
}

func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.quota)
		r.Post("/", h.Send)
		r.Post("/stream", h.Stream)
		r.Post("/agents/{agentID}", h.SendToAgent)
	})

	r.Get("/agents/{agentID}/transcript", h.GetTranscript)
	r.Put("/agents/{agentID}/transcript", h.SaveTranscript)
	r.Delete("/agents/{agentID}/transcript", h.ClearTranscript)

	return r
}

type transcriptResponse struct {
	Messages []model.ChatMessage `json:"messages"`
}

// POST /api/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	if requireSession(w, r) == nil {
		return
	}

	var req service.RelayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	transcript, err := h.relay.Relay(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{Messages: transcript})
}

// POST /api/chat/stream
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if requireSession(w, r) == nil {
		return
	}

	var req service.RelayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, apperrors.MissingRequired("message"))
		return
	}

	h.streamTurn(w, r, func(onDelta func(string) error) ([]model.ChatMessage, error) {
		return h.relay.Stream(r.Context(), req, onDelta)
	})
}

type agentChatRequest struct {
	Message string `json:"message"`
}

// POST /api/chat/agents/{agentID}. Streams when the client accepts
// text/event-stream.
func (h *ChatHandler) SendToAgent(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	agentID, ok := resourceID(w, r, "agentID")
	if !ok {
		return
	}

	var req agentChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, apperrors.MissingRequired("message"))
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		h.streamTurn(w, r, func(onDelta func(string) error) ([]model.ChatMessage, error) {
			return h.agentChat.Send(r.Context(), sess, agentID, req.Message, onDelta)
		})
		return
	}

	transcript, err := h.agentChat.Send(r.Context(), sess, agentID, req.Message, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{Messages: transcript})
}

// streamTurn opens the event stream lazily so errors raised before the first
// delta are still reported as plain JSON.
func (h *ChatHandler) streamTurn(w http.ResponseWriter, r *http.Request, run func(onDelta func(string) error) ([]model.ChatMessage, error)) {
	var stream *sse.Stream
	open := func() error {
		if stream != nil {
			return nil
		}
		s, err := sse.NewStream(w)
		if err != nil {
			return err
		}
		stream = s
		return nil
	}

	transcript, err := run(func(delta string) error {
		if err := open(); err != nil {
			return err
		}
		return stream.Send("delta", map[string]string{"content": delta})
	})
	if err != nil {
		if stream == nil {
			writeError(w, err)
			return
		}
		if err := stream.Send("error", map[string]string{"error": "Chat failed"}); err != nil {
			log.Debug().Err(err).Msg("chat: failed to send error event")
		}
		return
	}

	if err := open(); err != nil {
		log.Warn().Err(err).Msg("chat: streaming unsupported, replying with JSON")
		writeJSON(w, http.StatusOK, transcriptResponse{Messages: transcript})
		return
	}
	if err := stream.Send("message", transcript[len(transcript)-1]); err != nil {
		log.Debug().Err(err).Msg("chat: client left before the final message")
		return
	}
	if err := stream.Send("done", transcriptResponse{Messages: transcript}); err != nil {
		log.Debug().Err(err).Msg("chat: failed to send done event")
	}
}

// GET /api/chat/agents/{agentID}/transcript
func (h *ChatHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	agentID, ok := resourceID(w, r, "agentID")
	if !ok {
		return
	}

	msgs, err := h.transcripts.Get(r.Context(), sess.UserEmail, agentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{Messages: msgs})
}

// PUT /api/chat/agents/{agentID}/transcript
func (h *ChatHandler) SaveTranscript(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	agentID, ok := resourceID(w, r, "agentID")
	if !ok {
		return
	}

	var body transcriptResponse
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	if err := h.transcripts.Save(r.Context(), sess.UserEmail, agentID, body.Messages); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DELETE /api/chat/agents/{agentID}/transcript
func (h *ChatHandler) ClearTranscript(w http.ResponseWriter, r *http.Request) {
	sess := requireSession(w, r)
	if sess == nil {
		return
	}
	agentID, ok := resourceID(w, r, "agentID")
	if !ok {
		return
	}

	if err := h.transcripts.Clear(r.Context(), sess.UserEmail, agentID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
