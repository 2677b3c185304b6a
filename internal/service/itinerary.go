package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/ai"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/prompt"
)

// ItineraryService drafts day plans for stored trips with an AI provider.
type ItineraryService struct {
	trips    *TripService
	provider ai.Provider
}

// NewItineraryService constructs an ItineraryService. provider may be nil when
// no AI provider is configured; Generate then always fails with ErrProvider.
func NewItineraryService(trips *TripService, provider ai.Provider) *ItineraryService {
	return &ItineraryService{trips: trips, provider: provider}
}

// Generate asks the provider for an itinerary for the stored trip and saves it.
// On a provider failure the stored trip is returned unchanged together with an
// error wrapping domain.ErrProvider.
func (s *ItineraryService) Generate(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	t, err := s.trips.Get(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.ItineraryService.Generate: %w", err)
	}
	if s.provider == nil {
		return t, fmt.Errorf("service.ItineraryService.Generate: %w: no AI provider configured", domain.ErrProvider)
	}

	days, err := s.draft(ctx, t)
	if err != nil {
		slog.Warn("itinerary generation failed", "trip_id", id, "provider", s.provider.Name(), "error", err)
		return t, fmt.Errorf("service.ItineraryService.Generate: %w", err)
	}

	updated, err := s.trips.Update(ctx, id, domain.TripPatch{Itinerary: &days})
	if err != nil {
		return t, fmt.Errorf("service.ItineraryService.Generate: %w", err)
	}
	return updated, nil
}

func (s *ItineraryService) draft(ctx context.Context, t domain.Trip) ([]domain.DailyItinerary, error) {
	p, err := s.provider.Prepare(prompt.FromTrip(t))
	if err != nil {
		return nil, fmt.Errorf("%w: prepare prompt: %v", domain.ErrProvider, err)
	}
	answer, err := s.provider.Ask(ctx, p)
	if err != nil {
		return nil, err
	}
	days, err := ai.ParseItinerary(answer)
	if err != nil {
		return nil, err
	}
	for _, d := range days {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrProvider, err)
		}
	}
	return days, nil
}
