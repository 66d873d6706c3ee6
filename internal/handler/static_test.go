package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPAHandler(t *testing.T) {
	tmpDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<!DOCTYPE html><html><body>Index</body></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "styles.css"), []byte("body { color: black; }"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "assets"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "assets", "app.js"), []byte("console.log('hello');"), 0644))

	handler := NewSPAHandler(tmpDir)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"serves index.html for root path", "/", http.StatusOK, "Index"},
		{"serves static files", "/styles.css", http.StatusOK, "color: black"},
		{"serves nested assets", "/assets/app.js", http.StatusOK, "console.log"},
		{"falls back to index.html for client routes", "/dashboard/settings", http.StatusOK, "Index"},
		{"missing asset is 404", "/assets/missing.js", http.StatusNotFound, ""},
		{"api paths are 404", "/api/users", http.StatusNotFound, ""},
		{"api prefix is 404", "/api/", http.StatusNotFound, ""},
		{"dot-dot paths are rejected", "/../../etc/passwd", http.StatusBadRequest, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path = tc.path
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestSPAHandler_NoIndexFile(t *testing.T) {
	handler := NewSPAHandler(t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
