package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aiworkforce/dashboard-server-go/internal/backend"
	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/trial"
)

type AgentBackend interface {
	ListAgents(ctx context.Context, token string, page backend.Page) ([]model.Agent, error)
	GetAgent(ctx context.Context, token, id string) (*model.Agent, error)
	CreateAgent(ctx context.Context, token string, params model.AgentParams) (*model.Agent, error)
	UpdateAgent(ctx context.Context, token, id string, params model.AgentParams) (*model.Agent, error)
	DeleteAgent(ctx context.Context, token, id string) error
	ListModels(ctx context.Context, token string) ([]model.ModelInfo, error)
}

type AgentService struct {
	backend AgentBackend
	now     func() time.Time
}

func NewAgentService(backend AgentBackend) *AgentService {
	return &AgentService{backend: backend, now: time.Now}
}

func (s *AgentService) List(ctx context.Context, sess *model.Session, page backend.Page) ([]model.Agent, error) {
	return s.backend.ListAgents(ctx, sess.AccessToken, page)
}

func (s *AgentService) Get(ctx context.Context, sess *model.Session, id string) (*model.Agent, error) {
	return s.backend.GetAgent(ctx, sess.AccessToken, id)
}

// Create refuses new agents once a user on an active trial owns maxAgents.
func (s *AgentService) Create(ctx context.Context, sess *model.Session, params model.AgentParams) (*model.Agent, error) {
	if field := params.Missing(); field != "" {
		return nil, apperrors.MissingRequired(field)
	}

	result, err := trial.Evaluate(sess.TrialStartDate, sess.TrialStatus, s.now())
	switch {
	case errors.Is(err, trial.ErrNoTrialFound):
		log.Debug().Str("email", sess.UserEmail).Msg("no trial start date, skipping agent limit")
	case err != nil:
		return nil, err
	case result.Limits != nil:
		if result.Expired || sess.IsTrialExpired {
			return nil, apperrors.TrialExpired()
		}
		existing, err := s.backend.ListAgents(ctx, sess.AccessToken, backend.Page{})
		if err != nil {
			return nil, err
		}
		if len(existing) >= result.Limits.MaxAgents {
			return nil, apperrors.QuotaExceeded("maxAgents")
		}
	}

	return s.backend.CreateAgent(ctx, sess.AccessToken, params)
}

func (s *AgentService) Update(ctx context.Context, sess *model.Session, id string, params model.AgentParams) (*model.Agent, error) {
	return s.backend.UpdateAgent(ctx, sess.AccessToken, id, params)
}

func (s *AgentService) Delete(ctx context.Context, sess *model.Session, id string) error {
	return s.backend.DeleteAgent(ctx, sess.AccessToken, id)
}

func (s *AgentService) Models(ctx context.Context, sess *model.Session) ([]model.ModelInfo, error) {
	return s.backend.ListModels(ctx, sess.AccessToken)
}
