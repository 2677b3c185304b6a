package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/middleware"
)

func serveLogged(t *testing.T, status int, body string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := middleware.NewSlogLogger(logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	// Simulate chimiddleware.RequestID with a known ID.
	req = req.WithContext(context.WithValue(req.Context(), chimiddleware.RequestIDKey, "test-req-id"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, status, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

// TestSlogLogger_logsRequestFields verifies the structured fields of the
// single log line written per request.
func TestSlogLogger_logsRequestFields(t *testing.T) {
	entry := serveLogged(t, http.StatusOK, `{"ok":true}`)

	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, "GET", entry["method"])
	require.Equal(t, "/trips", entry["path"])
	require.EqualValues(t, http.StatusOK, entry["status"])
	require.EqualValues(t, 11, entry["bytes"])
	require.Equal(t, "test-req-id", entry["request_id"])
	require.NotNil(t, entry["duration_ms"])
}

func TestSlogLogger_levelFollowsStatus(t *testing.T) {
	require.Equal(t, "WARN", serveLogged(t, http.StatusNotFound, "")["level"])
	require.Equal(t, "ERROR", serveLogged(t, http.StatusBadGateway, "")["level"])
}
