package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/middleware"
)

func TestAPIKeyHandler(t *testing.T) {
	h := middleware.NewAPIKeyHandler([]string{"alpha", "beta"}, "/healthz")(okHandler)

	tests := []struct {
		name   string
		method string
		path   string
		header map[string]string
		want   int
	}{
		{"header key", http.MethodGet, "/trips", map[string]string{middleware.APIKeyHeader: "beta"}, http.StatusOK},
		{"bearer key", http.MethodGet, "/trips", map[string]string{"Authorization": "Bearer alpha"}, http.StatusOK},
		{"wrong key", http.MethodGet, "/trips", map[string]string{middleware.APIKeyHeader: "gamma"}, http.StatusUnauthorized},
		{"no key", http.MethodPost, "/trips", nil, http.StatusUnauthorized},
		{"public path", http.MethodGet, "/healthz", nil, http.StatusOK},
		{"preflight", http.MethodOptions, "/trips", nil, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAPIKeyHandler_ErrorBody(t *testing.T) {
	h := middleware.NewAPIKeyHandler([]string{"alpha"})(okHandler)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trips", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unauthorized", body.Error.Code)
}

func TestAPIKeyHandler_NoKeysDisablesAuth(t *testing.T) {
	h := middleware.NewAPIKeyHandler(nil)(okHandler)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/trips/1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
