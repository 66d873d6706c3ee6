package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aiworkforce/dashboard-server-go/internal/backend"
	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  backend.Page
	}{
		{"", backend.Page{}},
		{"?skip=20&limit=10", backend.Page{Skip: 20, Limit: 10}},
		{"?skip=-5", backend.Page{}},
		{"?limit=0", backend.Page{Limit: DefaultLimit}},
		{"?limit=abc", backend.Page{Limit: DefaultLimit}},
		{"?limit=1000", backend.Page{Limit: MaxLimit}},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
		assert.Equal(t, tc.want, ParsePagination(req), tc.query)
	}
}

func TestDataSourceHandler(t *testing.T) {
	t.Run("list forwards the bearer token and page", func(t *testing.T) {
		b := new(mockDataSourceBackend)
		b.On("ListDataSources", mock.Anything, "backend-token", backend.Page{Skip: 10, Limit: 5}).
			Return([]model.DataSource{{ID: "ds-1", Name: "Docs"}}, nil)

		rec := httptest.NewRecorder()
		withSession(testSession(), NewDataSourceHandler(b).Routes()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?skip=10&limit=5", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":"ds-1"`)
		b.AssertExpectations(t)
	})

	t.Run("sync is accepted", func(t *testing.T) {
		b := new(mockDataSourceBackend)
		b.On("SyncDataSource", mock.Anything, "backend-token", "ds-1").Return(&model.DataSource{ID: "ds-1"}, nil)

		rec := httptest.NewRecorder()
		withSession(testSession(), NewDataSourceHandler(b).Routes()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ds-1/sync", nil))

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("upstream 404 passes through", func(t *testing.T) {
		b := new(mockDataSourceBackend)
		b.On("GetDataSource", mock.Anything, "backend-token", "ds-9").Return(nil, apperrors.Upstream(404, "Data source not found"))

		rec := httptest.NewRecorder()
		withSession(testSession(), NewDataSourceHandler(b).Routes()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ds-9", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Data source not found")
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		withSession(testSession(), NewDataSourceHandler(new(mockDataSourceBackend)).Routes()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
