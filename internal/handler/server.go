// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, export.go, tag.go, ...) but share the same Server struct
// so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

// TripServicer defines the trip operations the handlers depend on.
// *service.TripService satisfies it; tests inject a mock.
type TripServicer interface {
	Create(ctx context.Context, in domain.TripInput, opts service.CreateOptions) (domain.Trip, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, opts domain.ListOptions) (domain.Page, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	RecordFeedback(ctx context.Context, id uuid.UUID, text string) (domain.Trip, error)
	Import(ctx context.Context, data []byte, format string, opts service.CreateOptions) (domain.Trip, error)
	Tags(ctx context.Context, prefix string) ([]domain.Tag, error)
}

// ItineraryGenerator drafts an itinerary for a stored trip.
type ItineraryGenerator interface {
	Generate(ctx context.Context, id uuid.UUID) (domain.Trip, error)
}

// AttractionFinder looks up attractions near a city.
type AttractionFinder interface {
	Attractions(ctx context.Context, city, state string, limit int) ([]domain.Attraction, error)
}

// Options carries request-independent behaviour switches.
type Options struct {
	// VerifyDates rejects new trips starting more than a day in the past.
	VerifyDates bool
	// OpenAPI is served at /openapi.yaml when non-empty.
	OpenAPI []byte
}

// Server holds the dependencies of every handler.
type Server struct {
	trips       TripServicer
	itineraries ItineraryGenerator
	attractions AttractionFinder
	opts        Options
	validate    *validator.Validate
}

// NewServer constructs the Server with all its dependencies. Any service may
// be nil when the routes using it are not needed (tests).
func NewServer(trips TripServicer, itineraries ItineraryGenerator, attractions AttractionFinder, opts Options) *Server {
	return &Server{
		trips:       trips,
		itineraries: itineraries,
		attractions: attractions,
		opts:        opts,
		validate:    newValidator(),
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, Options{})
}

// Routes registers every endpoint on a new chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// Register adds every endpoint to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)
		r.Post("/import", s.ImportTrip)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Patch("/", s.UpdateTrip)
			r.Delete("/", s.DeleteTrip)
			r.Get("/export", s.ExportTrip)
			r.Post("/itinerary", s.GenerateItinerary)
			r.Post("/feedback", s.RecordFeedback)
		})
	})

	r.Get("/tags", s.ListTags)
	r.Get("/attractions", s.ListAttractions)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, notFoundBody("route not found"))
	})
}
