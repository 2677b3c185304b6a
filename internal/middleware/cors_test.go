package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/middleware"
)

var webOrigins = []string{"http://localhost:5173", "https://trips.example.com"}

// okHandler stands in for the router and always answers 200.
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSHandler_SimpleRequests(t *testing.T) {
	tests := []struct {
		name      string
		origin    string
		wantAllow string
	}{
		{"dev server", "http://localhost:5173", "http://localhost:5173"},
		{"second configured origin", "https://trips.example.com", "https://trips.example.com"},
		{"unknown origin gets no grant", "http://evil.example.com", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.NewCORSHandler(webOrigins)(okHandler)

			req := httptest.NewRequest(http.MethodGet, "/trips/123/export?format=csv", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			if tc.wantAllow != "" {
				// The browser may read the export file name.
				assert.Equal(t, "Content-Disposition", rec.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}

// Browsers send the requested header names in lowercase and rs/cors compares
// them that way.
func TestCORSHandler_PreflightWithAPIKey(t *testing.T) {
	h := middleware.NewCORSHandler(webOrigins)(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/trips/123", nil)
	req.Header.Set("Origin", "https://trips.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "content-type,x-api-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300, "preflight must succeed")
	assert.Equal(t, "https://trips.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSHandler_PreflightRejectsPut(t *testing.T) {
	h := middleware.NewCORSHandler(webOrigins)(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/trips/123", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}
