package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/middleware"
)

func TestMetricsHandler_LabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := chi.NewRouter()
	r.Use(middleware.NewMetricsHandler(reg))
	r.Get("/trips/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	for _, path := range []string{"/trips/a", "/trips/b", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	got := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			got[labels["route"]+" "+labels["status"]] = m.GetCounter().GetValue()
		}
	}
	assert.Len(t, got, 2, "one series per route/status pair")
	assert.Equal(t, 2.0, got["/trips/{id} 404"])
	assert.Equal(t, 1.0, got["unmatched 404"])
}
