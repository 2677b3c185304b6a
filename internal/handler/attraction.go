package handler

import (
	"net/http"
	"strings"

	"github.com/pkordes/trip-planner/internal/domain"
)

const (
	defaultAttractionLimit = 10
	maxAttractionLimit     = 50
)

// AttractionListResponse is the body of GET /attractions.
type AttractionListResponse struct {
	Data []domain.Attraction `json:"data"`
}

// ListAttractions handles GET /attractions?city=&state=&limit=.
func (s *Server) ListAttractions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city, state := strings.TrimSpace(q.Get("city")), strings.TrimSpace(q.Get("state"))
	if city == "" || state == "" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("city and state are required"))
		return
	}
	limit, err := optionalInt(q.Get("limit"), "limit")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	n := defaultAttractionLimit
	if limit != nil {
		if *limit < 1 || *limit > maxAttractionLimit {
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("limit must be between 1 and 50"))
			return
		}
		n = *limit
	}

	found, err := s.attractions.Attractions(r.Context(), city, state, n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AttractionListResponse{Data: nonNil(found)})
}
