package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/middleware"
)

// importHandler reads the whole body the way POST /trips/import does and
// reports whether the read hit the size limit.
func importHandler(t *testing.T, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		_, err := io.ReadAll(r.Body)
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			assert.Equal(t, int64(100), tooBig.Limit)
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		require.NoError(t, err)
		w.WriteHeader(http.StatusCreated)
	})
}

func TestMaxBodySizeHandler_DocumentWithinLimit(t *testing.T) {
	var called bool
	h := middleware.NewMaxBodySizeHandler(100)(importHandler(t, &called))

	req := httptest.NewRequest(http.MethodPost, "/trips/import", strings.NewReader(strings.Repeat("x", 100)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, called)
	require.Equal(t, http.StatusCreated, rec.Code)
}

// A declared Content-Length over the limit is answered by the middleware
// itself with the API's JSON error body.
func TestMaxBodySizeHandler_DeclaredLengthRejectedEarly(t *testing.T) {
	var called bool
	h := middleware.NewMaxBodySizeHandler(100)(importHandler(t, &called))

	req := httptest.NewRequest(http.MethodPost, "/trips/import", strings.NewReader(strings.Repeat("x", 101)))
	req.ContentLength = 101
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.False(t, called, "next handler must not run")
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":{"code":"request_too_large","message":"request body too large"}}`, rec.Body.String())
}

func TestMaxBodySizeHandler_ChunkedBodyStoppedWhileReading(t *testing.T) {
	var called bool
	h := middleware.NewMaxBodySizeHandler(100)(importHandler(t, &called))

	req := httptest.NewRequest(http.MethodPost, "/trips/import", strings.NewReader(strings.Repeat("x", 250)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, called)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
