package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aiworkforce/dashboard-server-go/internal/backend"
	"github.com/aiworkforce/dashboard-server-go/internal/llm"
	"github.com/aiworkforce/dashboard-server-go/internal/middleware"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
	"github.com/aiworkforce/dashboard-server-go/internal/session"
)

func testSession() *model.Session {
	return &model.Session{
		UserEmail:   "jane@example.com",
		Name:        "Jane Doe",
		AccessToken: "backend-token",
		TrialStatus: model.TrialStatusFreeTrial,
	}
}

// withSession mounts routes behind a middleware that injects sess.
func withSession(sess *model.Session, routes chi.Router) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if sess != nil {
				req = req.WithContext(middleware.WithSession(req.Context(), sess))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Mount("/", routes)
	return r
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(strings.Repeat("k", 40), 30*24*time.Hour)
	require.NoError(t, err)
	return store
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type mockAuthBackend struct {
	mock.Mock
}

func (m *mockAuthBackend) Login(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockAuthBackend) GoogleUpsert(ctx context.Context, profile *model.GoogleProfile) (*model.User, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockAuthBackend) Register(ctx context.Context, params model.RegisterParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
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

type mockDataSourceBackend struct {
	mock.Mock
}

func (m *mockDataSourceBackend) ListDataSources(ctx context.Context, token string, page backend.Page) ([]model.DataSource, error) {
	args := m.Called(ctx, token, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DataSource), args.Error(1)
}

func (m *mockDataSourceBackend) GetDataSource(ctx context.Context, token, id string) (*model.DataSource, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DataSource), args.Error(1)
}

func (m *mockDataSourceBackend) CreateDataSource(ctx context.Context, token string, params model.DataSourceParams) (*model.DataSource, error) {
	args := m.Called(ctx, token, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DataSource), args.Error(1)
}

func (m *mockDataSourceBackend) UpdateDataSource(ctx context.Context, token, id string, params model.DataSourceParams) (*model.DataSource, error) {
	args := m.Called(ctx, token, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DataSource), args.Error(1)
}

func (m *mockDataSourceBackend) DeleteDataSource(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *mockDataSourceBackend) SyncDataSource(ctx context.Context, token, id string) (*model.DataSource, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DataSource), args.Error(1)
}

// fakeCompleter replays canned deltas and then an optional error.
type fakeCompleter struct {
	deltas []string
	err    error
}

func (f *fakeCompleter) Stream(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
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
