package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

// CreateTripRequest is the body of POST /trips.
type CreateTripRequest struct {
	Title                string                  `json:"title" validate:"required,max=200"`
	StartDate            *openapi_types.Date     `json:"start_date" validate:"required"`
	EndDate              *openapi_types.Date     `json:"end_date" validate:"required"`
	OriginCity           string                  `json:"origin_city" validate:"max=120"`
	OriginState          string                  `json:"origin_state" validate:"max=120"`
	DestinationCity      string                  `json:"destination_city" validate:"required,max=120"`
	DestinationState     string                  `json:"destination_state" validate:"required,max=120"`
	DestinationLongitude *float64                `json:"destination_longitude" validate:"omitempty,gte=-180,lte=180"`
	DestinationLatitude  *float64                `json:"destination_latitude" validate:"omitempty,gte=-90,lte=90"`
	TravelBy             string                  `json:"travel_by" validate:"omitempty,oneof=driving walking bicycling transit flying"`
	Attractions          []domain.Attraction     `json:"attractions"`
	Itinerary            []domain.DailyItinerary `json:"itinerary"`
	Goals                string                  `json:"goals" validate:"max=4000"`
	Notes                string                  `json:"notes" validate:"max=8000"`
	Tags                 []string                `json:"tags" validate:"max=50,dive,required,max=50"`
	Meta                 map[string]any          `json:"meta"`
}

// UpdateTripRequest is the body of PATCH /trips/{id}. Absent fields are left unchanged.
type UpdateTripRequest struct {
	Title            *string                  `json:"title" validate:"omitempty,max=200"`
	StartDate        *openapi_types.Date      `json:"start_date"`
	EndDate          *openapi_types.Date      `json:"end_date"`
	OriginCity       *string                  `json:"origin_city" validate:"omitempty,max=120"`
	OriginState      *string                  `json:"origin_state" validate:"omitempty,max=120"`
	DestinationCity  *string                  `json:"destination_city" validate:"omitempty,max=120"`
	DestinationState *string                  `json:"destination_state" validate:"omitempty,max=120"`
	TravelBy         *string                  `json:"travel_by" validate:"omitempty,oneof=driving walking bicycling transit flying"`
	Weather          *[]domain.ForecastDay    `json:"weather"`
	Attractions      *[]domain.Attraction     `json:"attractions"`
	Itinerary        *[]domain.DailyItinerary `json:"itinerary"`
	Goals            *string                  `json:"goals" validate:"omitempty,max=4000"`
	Notes            *string                  `json:"notes" validate:"omitempty,max=8000"`
	Tags             *[]string                `json:"tags" validate:"omitempty,max=50,dive,required,max=50"`
	Meta             *map[string]any          `json:"meta"`
}

// PlaceResponse is a city/state pair and its coordinates, when known.
type PlaceResponse struct {
	City      string   `json:"city"`
	State     string   `json:"state"`
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

// TripResponse is the API representation of a trip.
type TripResponse struct {
	ID          uuid.UUID               `json:"id"`
	CreatedAt   time.Time               `json:"created_at"`
	Title       string                  `json:"title"`
	Slug        string                  `json:"slug"`
	StartDate   openapi_types.Date      `json:"start_date"`
	EndDate     openapi_types.Date      `json:"end_date"`
	Days        int                     `json:"days"`
	Origin      PlaceResponse           `json:"origin"`
	Destination PlaceResponse           `json:"destination"`
	TravelBy    domain.TravelMode       `json:"travel_by"`
	Weather     []domain.ForecastDay    `json:"weather"`
	Attractions []domain.Attraction     `json:"attractions"`
	Itinerary   []domain.DailyItinerary `json:"itinerary"`
	Goals       string                  `json:"goals"`
	Notes       string                  `json:"notes"`
	Tags        []string                `json:"tags"`
	Meta        map[string]any          `json:"meta"`
}

// Pagination describes the page returned by GET /trips.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// TripListResponse is the body of GET /trips.
type TripListResponse struct {
	Data       []TripResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.trips.Create(r.Context(), req.toInput(), service.CreateOptions{VerifyDates: s.opts.VerifyDates, Persist: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/trips/"+created.ID.String())
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// ListTrips handles GET /trips.
// Supports ?page=, ?limit= (defaults: page=1, limit=20, max=100) and ?tag=.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"), "page")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	limit, err := optionalInt(q.Get("limit"), "limit")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	opts := domain.NewListOptions(page, limit, q.Get("tag"))
	result, err := s.trips.List(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := make([]TripResponse, len(result.Items))
	for i, t := range result.Items {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, TripListResponse{
		Data:       data,
		Pagination: Pagination{Page: opts.Page, Limit: opts.Limit, Total: result.Total},
	})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(w, r)
	if !ok {
		return
	}
	trip, err := s.trips.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

// UpdateTrip handles PATCH /trips/{id}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(w, r)
	if !ok {
		return
	}
	var req UpdateTripRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.trips.Update(r.Context(), id, req.toPatch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(updated))
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(w, r)
	if !ok {
		return
	}
	removed, err := s.trips.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, notFoundBody("trip not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// tripID parses the {id} path parameter, writing a 404 when it is not a UUID.
func tripID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, notFoundBody("trip not found"))
		return uuid.Nil, false
	}
	return id, true
}

func optionalInt(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}

func (req CreateTripRequest) toInput() domain.TripInput {
	in := domain.TripInput{
		Title:       req.Title,
		StartDate:   req.StartDate.Time,
		EndDate:     req.EndDate.Time,
		Origin:      domain.Place{City: req.OriginCity, State: req.OriginState},
		Destination: domain.Place{City: req.DestinationCity, State: req.DestinationState},
		TravelBy:    domain.TravelMode(req.TravelBy),
		Attractions: req.Attractions,
		Itinerary:   req.Itinerary,
		Goals:       req.Goals,
		Notes:       req.Notes,
		Tags:        req.Tags,
		Meta:        domain.Meta(req.Meta),
	}
	if req.DestinationLongitude != nil && req.DestinationLatitude != nil {
		in.Destination.Coordinates = &domain.Coordinates{Longitude: *req.DestinationLongitude, Latitude: *req.DestinationLatitude}
	}
	return in
}

func (req UpdateTripRequest) toPatch() domain.TripPatch {
	p := domain.TripPatch{
		Title:            req.Title,
		OriginCity:       req.OriginCity,
		OriginState:      req.OriginState,
		DestinationCity:  req.DestinationCity,
		DestinationState: req.DestinationState,
		Weather:          req.Weather,
		Attractions:      req.Attractions,
		Itinerary:        req.Itinerary,
		Goals:            req.Goals,
		Notes:            req.Notes,
		Tags:             req.Tags,
	}
	if req.StartDate != nil {
		p.StartDate = &req.StartDate.Time
	}
	if req.EndDate != nil {
		p.EndDate = &req.EndDate.Time
	}
	if req.TravelBy != nil {
		mode := domain.TravelMode(*req.TravelBy)
		p.TravelBy = &mode
	}
	if req.Meta != nil {
		meta := domain.Meta(*req.Meta)
		p.Meta = &meta
	}
	return p
}

func placeToResponse(p domain.Place) PlaceResponse {
	out := PlaceResponse{City: p.City, State: p.State}
	if c := p.Coordinates; c != nil {
		lon, lat := c.Longitude, c.Latitude
		out.Longitude, out.Latitude = &lon, &lat
	}
	return out
}

// tripToResponse converts a domain.Trip into its API representation.
func tripToResponse(t domain.Trip) TripResponse {
	return TripResponse{
		ID:          t.ID,
		CreatedAt:   t.CreatedAt,
		Title:       t.Title,
		Slug:        t.Slug,
		StartDate:   openapi_types.Date{Time: t.StartDate},
		EndDate:     openapi_types.Date{Time: t.EndDate},
		Days:        t.Days(),
		Origin:      placeToResponse(t.Origin),
		Destination: placeToResponse(t.Destination),
		TravelBy:    t.TravelBy,
		Weather:     nonNil(t.Weather),
		Attractions: nonNil(t.Attractions),
		Itinerary:   nonNil(t.Itinerary),
		Goals:       t.Goals,
		Notes:       t.Notes,
		Tags:        nonNil(t.Tags),
		Meta:        t.Meta,
	}
}

// nonNil makes empty collections encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
