package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/llm"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/repository"
)

// FallbackReply stands in for the assistant whenever the completion API fails.
const FallbackReply = "I apologize, but I encountered an error. Please try again."

type Completer interface {
	Stream(ctx context.Context, req llm.Request) (<-chan string, <-chan error)
}

type RelayRequest struct {
	History      []model.ChatMessage `json:"history"`
	Message      string              `json:"message"`
	Instructions string              `json:"instructions,omitempty"`
	Model        string              `json:"model,omitempty"`
}

// ChatRelay forwards conversation turns to the completion API. Every user
// turn gets exactly one assistant turn back, even when the upstream fails.
type ChatRelay struct {
	completer Completer
	now       func() time.Time
}

func NewChatRelay(completer Completer) *ChatRelay {
	return &ChatRelay{completer: completer, now: time.Now}
}

// Relay returns the prior turns, the new user turn and the assistant reply.
func (c *ChatRelay) Relay(ctx context.Context, req RelayRequest) ([]model.ChatMessage, error) {
	return c.Stream(ctx, req, nil)
}

// Stream behaves like Relay and also hands each content delta to onDelta as
// it arrives. A failing onDelta stops forwarding but not collecting.
func (c *ChatRelay) Stream(ctx context.Context, req RelayRequest, onDelta func(string) error) ([]model.ChatMessage, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apperrors.MissingRequired("message")
	}

	transcript := make([]model.ChatMessage, len(req.History), len(req.History)+2)
	copy(transcript, req.History)
	transcript = append(transcript, c.turn(model.ChatRoleUser, req.Message))

	deltas, errs := c.completer.Stream(ctx, llm.Request{
		Model:    req.Model,
		Messages: completionMessages(req.Instructions, transcript),
	})

	var reply strings.Builder
	forward := onDelta != nil
	for delta := range deltas {
		reply.WriteString(delta)
		if forward {
			if err := onDelta(delta); err != nil {
				log.Debug().Err(err).Msg("chat relay: stopped forwarding deltas")
				forward = false
			}
		}
	}

	content := reply.String()
	if err := <-errs; err != nil {
		log.Warn().Err(err).Str("model", req.Model).Msg("chat relay: completion failed, using fallback reply")
		content = FallbackReply
	} else if strings.TrimSpace(content) == "" {
		log.Warn().Str("model", req.Model).Msg("chat relay: empty completion, using fallback reply")
		content = FallbackReply
	}

	return append(transcript, c.turn(model.ChatRoleAssistant, content)), nil
}

func (c *ChatRelay) turn(role model.ChatRole, content string) model.ChatMessage {
	return model.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: c.now().UTC(),
	}
}

func completionMessages(instructions string, transcript []model.ChatMessage) []llm.Message {
	msgs := make([]llm.Message, 0, len(transcript)+1)
	if strings.TrimSpace(instructions) != "" {
		msgs = append(msgs, llm.Message{Role: model.ChatRoleSystem, Content: instructions})
	}
	for _, m := range transcript {
		if m.Content == "" {
			continue
		}
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// TranscriptService keeps each user's conversation with an agent.
type TranscriptService struct {
	repo repository.TranscriptRepository
}

func NewTranscriptService(repo repository.TranscriptRepository) *TranscriptService {
	return &TranscriptService{repo: repo}
}

func (s *TranscriptService) Get(ctx context.Context, email, agentID string) ([]model.ChatMessage, error) {
	transcript, err := s.repo.Find(ctx, email, agentID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if transcript == nil {
		return []model.ChatMessage{}, nil
	}
	msgs, err := transcript.DecodeMessages()
	if err != nil {
		return nil, apperrors.Decode("transcript", err)
	}
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return msgs, nil
}

func (s *TranscriptService) Save(ctx context.Context, email, agentID string, msgs []model.ChatMessage) error {
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return apperrors.Internal("Failed to encode transcript").WithCause(err)
	}
	if _, err := s.repo.Upsert(ctx, model.UpsertTranscriptParams{
		UserEmail: email,
		AgentID:   agentID,
		Messages:  raw,
	}); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func (s *TranscriptService) Clear(ctx context.Context, email, agentID string) error {
	if err := s.repo.Delete(ctx, email, agentID); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// AgentChatService runs a chat turn against a stored agent, using its
// instructions and model and persisting the transcript afterwards.
type AgentChatService struct {
	agents      AgentReader
	relay       *ChatRelay
	transcripts *TranscriptService
}

type AgentReader interface {
	GetAgent(ctx context.Context, token, id string) (*model.Agent, error)
}

func NewAgentChatService(agents AgentReader, relay *ChatRelay, transcripts *TranscriptService) *AgentChatService {
	return &AgentChatService{agents: agents, relay: relay, transcripts: transcripts}
}

func (s *AgentChatService) Send(ctx context.Context, sess *model.Session, agentID, message string, onDelta func(string) error) ([]model.ChatMessage, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.MissingRequired("message")
	}

	agent, err := s.agents.GetAgent(ctx, sess.AccessToken, agentID)
	if err != nil {
		return nil, err
	}

	history, err := s.transcripts.Get(ctx, sess.UserEmail, agentID)
	if err != nil {
		return nil, err
	}

	transcript, err := s.relay.Stream(ctx, RelayRequest{
		History:      history,
		Message:      message,
		Instructions: agent.Instructions,
		Model:        agent.BaseModel,
	}, onDelta)
	if err != nil {
		return nil, err
	}

	if err := s.transcripts.Save(ctx, sess.UserEmail, agentID, transcript); err != nil {
		log.Error().Err(err).Str("agentId", agentID).Msg("failed to save chat transcript")
	}
	return transcript, nil
}
