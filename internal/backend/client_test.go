package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestLogin(t *testing.T) {
	t.Run("exchanges credentials then loads profile", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "jane@example.com", r.PostForm.Get("username"))
			assert.Equal(t, "hunter2", r.PostForm.Get("password"))
			writeBody(w, http.StatusOK, map[string]string{"access_token": "tok-1", "token_type": "bearer"})
		})
		mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			writeBody(w, http.StatusOK, map[string]any{
				"email":            "jane@example.com",
				"first_name":       "Jane",
				"last_name":        "Doe",
				"trial_start_date": "2026-03-01T10:00:00.000000",
				"trial_status":     "active",
				"is_trial_expired": false,
			})
		})
		client := newTestClient(t, mux)

		user, err := client.Login(context.Background(), "jane@example.com", "hunter2")
		require.NoError(t, err)

		assert.Equal(t, "jane@example.com", user.Email)
		assert.Equal(t, "tok-1", user.AccessToken)
		assert.Equal(t, model.TrialStatusActive, user.TrialStatus)
		require.NotNil(t, user.TrialStartDate)
		assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), *user.TrialStartDate)
	})

	t.Run("wrong password surfaces upstream detail unchanged", func(t *testing.T) {
		profileCalled := false
		mux := http.NewServeMux()
		mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication failed"})
		})
		mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
			profileCalled = true
		})
		client := newTestClient(t, mux)

		_, err := client.Login(context.Background(), "jane@example.com", "wrong")
		require.Error(t, err)

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeAuthenticationFailed, appErr.Code)
		assert.Equal(t, "Authentication failed", appErr.Message)
		assert.Equal(t, http.StatusUnauthorized, appErr.Status)
		assert.False(t, profileCalled)
	})

	t.Run("profile failure aborts", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, map[string]string{"access_token": "tok-1"})
		})
		mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusForbidden, map[string]string{"detail": "Inactive user"})
		})
		client := newTestClient(t, mux)

		_, err := client.Login(context.Background(), "jane@example.com", "hunter2")
		assert.Equal(t, apperrors.ErrCodeAuthenticationFailed, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "Inactive user")
	})

	t.Run("missing access token is a decode error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, map[string]string{"token_type": "bearer"})
		})
		client := newTestClient(t, mux)

		_, err := client.Login(context.Background(), "jane@example.com", "hunter2")
		assert.Equal(t, apperrors.ErrCodeDecode, apperrors.GetCode(err))
	})

	t.Run("validates before calling out", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:0", time.Second)
		_, err := client.Login(context.Background(), "", "x")
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})

	t.Run("network failure is an external error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		client := NewClient(url, time.Second)

		_, err := client.Login(context.Background(), "jane@example.com", "hunter2")
		assert.Equal(t, apperrors.ErrCodeExternal, apperrors.GetCode(err))
	})
}

func TestGoogleUpsert(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/google", func(w http.ResponseWriter, r *http.Request) {
		var req googleUpsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "g-123", req.GoogleID)
		assert.Equal(t, "Jane", req.FirstName)
		assert.Equal(t, "van Doe", req.LastName)
		writeBody(w, http.StatusOK, map[string]any{
			"access_token":     "tok-g",
			"trial_start_date": "2026-03-01T10:00:00Z",
			"trial_status":     "free_trial",
		})
	})
	client := newTestClient(t, mux)

	user, err := client.GoogleUpsert(context.Background(), &model.GoogleProfile{
		ID:         "g-123",
		Email:      "jane@example.com",
		Name:       "Jane van Doe",
		GivenName:  "Jane",
		FamilyName: "van Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-g", user.AccessToken)
	assert.Equal(t, "Jane", user.FirstName)
	assert.Equal(t, model.TrialStatusFreeTrial, user.TrialStatus)
	assert.NotNil(t, user.TrialStartDate)
}

func TestReadDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Agent not found"}`, "Agent not found"},
		{"validation list", `{"detail":[{"msg":"field required"},{"msg":"value too long"}]}`, "field required; value too long"},
		{"message field", `{"message":"Quota exceeded"}`, "Quota exceeded"},
		{"no detail", `{}`, "Request failed with status 422"},
		{"not json", `<html>oops</html>`, "Request failed with status 422"},
		{"empty", ``, "Request failed with status 422"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(tc.body))
			}))

			_, err := client.ListModels(context.Background(), "tok")
			appErr, ok := apperrors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeUpstream, appErr.Code)
			assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
			assert.Equal(t, tc.want, appErr.Message)
		})
	}
}

func TestAgents(t *testing.T) {
	t.Run("list forwards pagination and token", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/agents", r.URL.Path)
			assert.Equal(t, "20", r.URL.Query().Get("skip"))
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			writeBody(w, http.StatusOK, []map[string]any{
				{"id": "a1", "name": "Support", "base_model": "gpt-4o", "created_at": "2026-03-01T10:00:00"},
			})
		}))

		agents, err := client.ListAgents(context.Background(), "tok", Page{Skip: 20, Limit: 10})
		require.NoError(t, err)
		require.Len(t, agents, 1)
		assert.Equal(t, "Support", agents[0].Name)
		assert.NotNil(t, agents[0].CreatedAt)
	})

	t.Run("list rejects entries without id", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, []map[string]any{{"name": "Support"}})
		}))

		_, err := client.ListAgents(context.Background(), "tok", Page{})
		assert.Equal(t, apperrors.ErrCodeDecode, apperrors.GetCode(err))
	})

	t.Run("malformed body is a decode error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": 12`))
		}))

		_, err := client.GetAgent(context.Background(), "tok", "a1")
		assert.Equal(t, apperrors.ErrCodeDecode, apperrors.GetCode(err))
	})

	t.Run("create validates required fields", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:0", time.Second)
		_, err := client.CreateAgent(context.Background(), "tok", model.AgentParams{Name: "x"})
		assert.Equal(t, apperrors.ErrCodeMissingRequired, apperrors.GetCode(err))
	})

	t.Run("ids are escaped", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/agents/a%2Fb", r.URL.EscapedPath())
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		}))

		assert.NoError(t, client.DeleteAgent(context.Background(), "tok", "a/b"))
	})
}

func TestDataSources(t *testing.T) {
	t.Run("rejects unknown source type", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:0", time.Second)
		_, err := client.CreateDataSource(context.Background(), "tok", model.DataSourceParams{Name: "n", SourceType: "ftp"})
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("sync posts to the sync path", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/data-sources/ds1/sync", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			writeBody(w, http.StatusOK, map[string]any{"id": "ds1", "is_connected": true, "document_count": 4})
		}))

		source, err := client.SyncDataSource(context.Background(), "tok", "ds1")
		require.NoError(t, err)
		assert.True(t, source.IsConnected)
		assert.Equal(t, 4, source.DocumentCount)
	})
}

func TestBilling(t *testing.T) {
	t.Run("checkout requires a url in the response", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeBody(w, http.StatusOK, map[string]string{})
		}))

		_, err := client.CreateCheckoutSession(context.Background(), "tok", model.CheckoutParams{PriceID: "price_1"})
		assert.Equal(t, apperrors.ErrCodeDecode, apperrors.GetCode(err))
	})

	t.Run("portal returns the redirect", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/billing/portal", r.URL.Path)
			writeBody(w, http.StatusOK, map[string]string{"url": "https://billing.example.com/s/1"})
		}))

		session, err := client.CreatePortalSession(context.Background(), "tok", model.PortalParams{ReturnURL: "http://localhost/billing"})
		require.NoError(t, err)
		assert.Equal(t, "https://billing.example.com/s/1", session.URL)
	})
}

func TestChangePassword(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusBadRequest, map[string]string{"detail": "Current password is incorrect"})
	}))

	err := client.ChangePassword(context.Background(), "tok", model.PasswordParams{CurrentPassword: "a", NewPassword: "b"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeUpstream, appErr.Code)
	assert.Equal(t, "Current password is incorrect", appErr.Message)
}
