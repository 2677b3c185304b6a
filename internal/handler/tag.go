package handler

import (
	"net/http"

	"github.com/pkordes/trip-planner/internal/domain"
)

// TagListResponse is the body of GET /tags.
type TagListResponse struct {
	Data []domain.Tag `json:"data"`
}

// ListTags handles GET /tags.
// Supports an optional ?q= prefix filter for autocomplete.
func (s *Server) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.trips.Tags(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Data: nonNil(tags)})
}
