package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aiworkforce/dashboard-server-go/internal/backend"
	"github.com/aiworkforce/dashboard-server-go/internal/llm"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Login(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockBackend) GoogleUpsert(ctx context.Context, profile *model.GoogleProfile) (*model.User, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockBackend) Register(ctx context.Context, params model.RegisterParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *mockBackend) ListAgents(ctx context.Context, token string, page backend.Page) ([]model.Agent, error) {
	args := m.Called(ctx, token, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Agent), args.Error(1)
}

func (m *mockBackend) GetAgent(ctx context.Context, token, id string) (*model.Agent, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Agent), args.Error(1)
}

func (m *mockBackend) CreateAgent(ctx context.Context, token string, params model.AgentParams) (*model.Agent, error) {
	args := m.Called(ctx, token, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Agent), args.Error(1)
}

func (m *mockBackend) UpdateAgent(ctx context.Context, token, id string, params model.AgentParams) (*model.Agent, error) {
	args := m.Called(ctx, token, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Agent), args.Error(1)
}

func (m *mockBackend) DeleteAgent(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *mockBackend) ListModels(ctx context.Context, token string) ([]model.ModelInfo, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ModelInfo), args.Error(1)
}

func (m *mockBackend) ListDataSources(ctx context.Context, token string, page backend.Page) ([]model.DataSource, error) {
	args := m.Called(ctx, token, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DataSource), args.Error(1)
}

func (m *mockBackend) GetUsageStats(ctx context.Context, token string) (*model.UsageStats, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageStats), args.Error(1)
}

type mockTranscriptRepo struct {
	mock.Mock
}

func (m *mockTranscriptRepo) Find(ctx context.Context, userEmail, agentID string) (*model.Transcript, error) {
	args := m.Called(ctx, userEmail, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transcript), args.Error(1)
}

func (m *mockTranscriptRepo) Upsert(ctx context.Context, params model.UpsertTranscriptParams) (*model.Transcript, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transcript), args.Error(1)
}

func (m *mockTranscriptRepo) Delete(ctx context.Context, userEmail, agentID string) error {
	args := m.Called(ctx, userEmail, agentID)
	return args.Error(0)
}

type mockOAuthStateRepo struct {
	mock.Mock
}

func (m *mockOAuthStateRepo) Consume(ctx context.Context, state string) (*model.OAuthState, error) {
	args := m.Called(ctx, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OAuthState), args.Error(1)
}

func (m *mockOAuthStateRepo) Create(ctx context.Context, params model.CreateOAuthStateParams) (*model.OAuthState, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OAuthState), args.Error(1)
}

func (m *mockOAuthStateRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// fakeCompleter replays canned deltas and then an optional error.
type fakeCompleter struct {
	deltas []string
	err    error
	got    llm.Request
}

func (f *fakeCompleter) Stream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	f.got = req
	deltas := make(chan string, len(f.deltas))
	errs := make(chan error, 1)
	for _, d := range f.deltas {
		deltas <- d
	}
	if f.err != nil {
		errs <- f.err
	}
	close(deltas)
	close(errs)
	return deltas, errs
}
