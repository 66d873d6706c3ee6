package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

// Page is an offset window on a backend list endpoint.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) query() url.Values {
	q := url.Values{}
	if p.Skip > 0 {
		q.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

func (c *Client) ListAgents(ctx context.Context, token string, page Page) ([]model.Agent, error) {
	var agents []model.Agent
	if err := c.getJSON(ctx, "/agents", token, page.query(), "agent list", &agents); err != nil {
		return nil, err
	}
	for i := range agents {
		if agents[i].ID == "" {
			return nil, apperrors.Decode("agent list", errors.New("agent id is missing"))
		}
	}
	if agents == nil {
		agents = []model.Agent{}
	}
	return agents, nil
}

func (c *Client) GetAgent(ctx context.Context, token, id string) (*model.Agent, error) {
	var agent model.Agent
	if err := c.getJSON(ctx, resourcePath("/agents", id), token, nil, "agent", &agent); err != nil {
		return nil, err
	}
	return checkAgent(&agent)
}

func (c *Client) CreateAgent(ctx context.Context, token string, params model.AgentParams) (*model.Agent, error) {
	if field := params.Missing(); field != "" {
		return nil, apperrors.MissingRequired(field)
	}
	var agent model.Agent
	if err := c.sendJSON(ctx, http.MethodPost, "/agents", token, params, "agent", &agent); err != nil {
		return nil, err
	}
	return checkAgent(&agent)
}

func (c *Client) UpdateAgent(ctx context.Context, token, id string, params model.AgentParams) (*model.Agent, error) {
	if field := params.Missing(); field != "" {
		return nil, apperrors.MissingRequired(field)
	}
	var agent model.Agent
	if err := c.sendJSON(ctx, http.MethodPut, resourcePath("/agents", id), token, params, "agent", &agent); err != nil {
		return nil, err
	}
	return checkAgent(&agent)
}

func (c *Client) DeleteAgent(ctx context.Context, token, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, resourcePath("/agents", id), token, nil, "agent", nil)
}

func (c *Client) ListModels(ctx context.Context, token string) ([]model.ModelInfo, error) {
	var models []model.ModelInfo
	if err := c.getJSON(ctx, "/models", token, nil, "model list", &models); err != nil {
		return nil, err
	}
	if models == nil {
		models = []model.ModelInfo{}
	}
	return models, nil
}

func checkAgent(agent *model.Agent) (*model.Agent, error) {
	if agent.ID == "" {
		return nil, apperrors.Decode("agent", errors.New("agent id is missing"))
	}
	if agent.KnowledgeBaseIDs == nil {
		agent.KnowledgeBaseIDs = []string{}
	}
	return agent, nil
}
