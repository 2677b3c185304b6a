package handler

import "net/http"

// FeedbackRequest is the body of POST /trips/{id}/feedback.
type FeedbackRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// GenerateItinerary handles POST /trips/{id}/itinerary.
// A provider failure leaves the stored itinerary untouched and returns 502.
func (s *Server) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(w, r)
	if !ok {
		return
	}
	trip, err := s.itineraries.Generate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// RecordFeedback handles POST /trips/{id}/feedback.
func (s *Server) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(w, r)
	if !ok {
		return
	}
	var req FeedbackRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	trip, err := s.trips.RecordFeedback(r.Context(), id, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}
