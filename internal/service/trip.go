// Package service contains the trip record manager: it validates and enriches
// trips, applies patches, and converts trips to and from their JSON and CSV
// exchange formats. No SQL or HTTP lives here; services depend on the store,
// resolver and forecaster interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/repo"
	"github.com/pkordes/trip-planner/internal/textutil"
	"github.com/pkordes/trip-planner/internal/weather"
)

// Resolver turns a city/state into coordinates, returning known unchanged
// when it is non-nil. *geo.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, city, state string, known *domain.Coordinates) (domain.Coordinates, error)
}

// CreateOptions controls the optional steps of Create.
type CreateOptions struct {
	// VerifyDates rejects a start date more than one day in the past.
	VerifyDates bool
	// Persist saves the new trip to the store.
	Persist bool
}

// maxStartAge is how far in the past a start date may be when VerifyDates is set.
const maxStartAge = 24 * time.Hour

// TripService implements the trip record lifecycle.
type TripService struct {
	store      repo.TripStore
	resolver   Resolver
	forecaster weather.Forecaster
	now        func() time.Time
}

// Option customizes a TripService.
type Option func(*TripService)

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *TripService) { s.now = now }
}

// NewTripService constructs a TripService. forecaster may be nil, in which
// case trips created without weather get an empty forecast.
func NewTripService(store repo.TripStore, resolver Resolver, forecaster weather.Forecaster, opts ...Option) *TripService {
	s := &TripService{store: store, resolver: resolver, forecaster: forecaster, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates and enriches in and returns a new Trip with a fresh ID.
//   - Title must be non-blank; Slug is derived from it.
//   - Dates are normalized to UTC; start must not be after end, and with
//     VerifyDates start must not be more than one day in the past.
//   - Destination city and state are required; origin is optional.
//   - Coordinates are resolved for every named place, reusing known values.
//   - A nil Weather is fetched for the destination; the forecast is always
//     filtered to [start, end].
//
// Returns domain.ErrValidation or domain.ErrLocationNotFound on failure.
func (s *TripService) Create(ctx context.Context, in domain.TripInput, opts CreateOptions) (domain.Trip, error) {
	t := domain.Trip{
		Title:       in.Title,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Origin:      in.Origin,
		Destination: in.Destination,
		Weather:     in.Weather,
		Attractions: in.Attractions,
		Itinerary:   in.Itinerary,
		Goals:       in.Goals,
		Notes:       in.Notes,
		Tags:        in.Tags,
	}

	if strings.TrimSpace(t.Title) == "" {
		return domain.Trip{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	mode, err := domain.ParseTravelMode(string(in.TravelBy))
	if err != nil {
		return domain.Trip{}, err
	}
	t.TravelBy = mode

	if err := s.validateDates(t.StartDate, t.EndDate, opts.VerifyDates); err != nil {
		return domain.Trip{}, err
	}
	if !t.Destination.Named() {
		return domain.Trip{}, fmt.Errorf("%w: destination city and state are required", domain.ErrValidation)
	}
	if err := validateContent(t); err != nil {
		return domain.Trip{}, err
	}
	if t.Meta, err = domain.NormalizeMeta(in.Meta); err != nil {
		return domain.Trip{}, err
	}

	if t.Origin, err = s.resolvePlace(ctx, t.Origin); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: origin: %w", err)
	}
	if t.Destination, err = s.resolvePlace(ctx, t.Destination); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: destination: %w", err)
	}

	if t.Weather == nil {
		if t.Weather, err = s.fetchWeather(ctx, t.Destination); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
		}
	}
	t.Weather = weather.FilterRange(t.Weather, t.StartDate, t.EndDate)

	t.ID = uuid.New()
	t.CreatedAt = s.now().UTC()
	t.Slug = textutil.Slugify(t.Title)
	normalizeCollections(&t)

	if opts.Persist {
		if err := s.save(ctx, t); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
		}
	}
	return t, nil
}

// Get returns the stored trip with the given ID.
// Returns domain.ErrNotFound if it does not exist.
func (s *TripService) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	doc, err := s.store.Load(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	t, err := decodeDocument(doc)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Get %s: %w", id, err)
	}
	return t, nil
}

// List returns one page of stored trips, newest first, optionally filtered by tag.
// Items is never nil.
func (s *TripService) List(ctx context.Context, opts domain.ListOptions) (domain.Page, error) {
	all, err := s.all(ctx)
	if err != nil {
		return domain.Page{}, fmt.Errorf("service.TripService.List: %w", err)
	}

	trips := make([]domain.Trip, 0, len(all))
	for _, t := range all {
		if opts.Tag != "" && !t.HasTag(opts.Tag) {
			continue
		}
		trips = append(trips, t)
	}

	lo, hi := opts.Window(len(trips))
	return domain.Page{Items: trips[lo:hi], Total: len(trips), Page: opts.Page, Limit: opts.Limit}, nil
}

// all decodes every stored trip, newest first. Unreadable records are skipped.
func (s *TripService) all(ctx context.Context) ([]domain.Trip, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	trips := make([]domain.Trip, 0, len(docs))
	for _, doc := range docs {
		t, err := decodeDocument(doc)
		if err != nil {
			slog.Warn("skipping unreadable trip record", "error", err)
			continue
		}
		trips = append(trips, t)
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].CreatedAt.After(trips[j].CreatedAt) })
	return trips, nil
}

// Update applies patch to the stored trip and saves it. Only supplied fields
// change; see domain.TripPatch for the side effects of each field.
// Returns domain.ErrNotFound, domain.ErrValidation or domain.ErrLocationNotFound.
func (s *TripService) Update(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	t, err = s.applyPatch(ctx, t, patch)
	if err != nil {
		return domain.Trip{}, err
	}
	if err := s.save(ctx, t); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return t, nil
}

func (s *TripService) applyPatch(ctx context.Context, t domain.Trip, p domain.TripPatch) (domain.Trip, error) {
	var err error

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return domain.Trip{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
		}
		if *p.Title != t.Title {
			t.Title = *p.Title
			t.Slug = textutil.Slugify(t.Title)
		}
	}
	if p.StartDate != nil {
		t.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		t.EndDate = p.EndDate.UTC()
	}
	if err := s.validateDates(t.StartDate, t.EndDate, false); err != nil {
		return domain.Trip{}, err
	}
	if p.TravelBy != nil {
		if t.TravelBy, err = domain.ParseTravelMode(string(*p.TravelBy)); err != nil {
			return domain.Trip{}, err
		}
	}

	origin := patchPlace(t.Origin, p.OriginCity, p.OriginState)
	if !origin.SameLocation(t.Origin) {
		origin.Coordinates = nil
		if t.Origin, err = s.resolvePlace(ctx, origin); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Update: origin: %w", err)
		}
	}

	destChanged := false
	dest := patchPlace(t.Destination, p.DestinationCity, p.DestinationState)
	if !dest.SameLocation(t.Destination) {
		if !dest.Named() {
			return domain.Trip{}, fmt.Errorf("%w: destination city and state are required", domain.ErrValidation)
		}
		dest.Coordinates = nil
		if t.Destination, err = s.resolvePlace(ctx, dest); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Update: destination: %w", err)
		}
		destChanged = true
	}

	switch {
	case p.Weather != nil:
		t.Weather = *p.Weather
	case destChanged:
		if t.Weather, err = s.fetchWeather(ctx, t.Destination); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Update: %w", err)
		}
	}
	if p.Attractions != nil {
		t.Attractions = *p.Attractions
	}
	if p.Itinerary != nil {
		t.Itinerary = *p.Itinerary
	}
	if p.Goals != nil {
		t.Goals = *p.Goals
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.Meta != nil {
		if t.Meta, err = domain.NormalizeMeta(*p.Meta); err != nil {
			return domain.Trip{}, err
		}
	}

	if err := validateContent(t); err != nil {
		return domain.Trip{}, err
	}
	t.Weather = weather.FilterRange(t.Weather, t.StartDate, t.EndDate)
	normalizeCollections(&t)
	return t, nil
}

// Delete removes the stored trip and reports whether a record was removed.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return removed, nil
}

// RecordFeedback stores traveller feedback and its sentiment label in Meta
// under "feedback" and "sentiment".
func (s *TripService) RecordFeedback(ctx context.Context, id uuid.UUID, text string) (domain.Trip, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Trip{}, fmt.Errorf("%w: feedback text is required", domain.ErrValidation)
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.RecordFeedback: %w", err)
	}
	meta := make(domain.Meta, len(t.Meta)+2)
	for k, v := range t.Meta {
		meta[k] = v
	}
	meta[MetaFeedback] = text
	meta[MetaSentiment] = string(Classify(text))
	return s.Update(ctx, id, domain.TripPatch{Meta: &meta})
}

// ---- helpers ---------------------------------------------------------------

func (s *TripService) validateDates(start, end time.Time, verify bool) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if start.After(end) {
		return fmt.Errorf("%w: start_date %s is after end_date %s", domain.ErrValidation, textutil.ISODate(start), textutil.ISODate(end))
	}
	if verify && start.Before(s.now().Add(-maxStartAge)) {
		return fmt.Errorf("%w: start_date %s is in the past", domain.ErrValidation, textutil.ISODate(start))
	}
	return nil
}

// resolvePlace fills in coordinates for a named place and clears them for an
// incomplete one.
func (s *TripService) resolvePlace(ctx context.Context, p domain.Place) (domain.Place, error) {
	if !p.Named() {
		p.Coordinates = nil
		return p, nil
	}
	if p.Coordinates != nil {
		if err := p.Coordinates.Validate(); err != nil {
			return domain.Place{}, err
		}
	}
	c, err := s.resolver.Resolve(ctx, p.City, p.State, p.Coordinates)
	if err != nil {
		return domain.Place{}, err
	}
	p.Coordinates = &c
	return p, nil
}

// fetchWeather returns the destination forecast, or an empty one when no
// forecaster is configured. Forecaster errors are returned to the caller.
func (s *TripService) fetchWeather(ctx context.Context, dest domain.Place) ([]domain.ForecastDay, error) {
	if s.forecaster == nil {
		return []domain.ForecastDay{}, nil
	}
	days, err := s.forecaster.Forecast(ctx, dest.City, dest.State)
	if err != nil {
		return nil, fmt.Errorf("weather for %s/%s: %w", dest.City, dest.State, err)
	}
	return days, nil
}

func (s *TripService) save(ctx context.Context, t domain.Trip) error {
	doc, err := SerializeJSON(t)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, t.ID, doc)
}

func patchPlace(p domain.Place, city, state *string) domain.Place {
	if city != nil {
		p.City = *city
	}
	if state != nil {
		p.State = *state
	}
	return p
}

// validateContent checks tags and every nested value object.
func validateContent(t domain.Trip) error {
	for _, f := range []struct{ name, value string }{
		{"title", t.Title},
		{"origin_city", t.Origin.City},
		{"origin_state", t.Origin.State},
		{"destination_city", t.Destination.City},
		{"destination_state", t.Destination.State},
		{"goals", t.Goals},
		{"notes", t.Notes},
	} {
		if err := domain.ValidText(f.name, f.value); err != nil {
			return err
		}
	}
	if err := domain.ValidateTags(t.Tags); err != nil {
		return err
	}
	for _, w := range t.Weather {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	for _, a := range t.Attractions {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	for _, d := range t.Itinerary {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// normalizeCollections copies the nested slices with their dates in UTC and
// replaces nil slices and maps with empty ones, so the JSON and CSV forms of a
// trip are identical whether or not a field was set.
func normalizeCollections(t *domain.Trip) {
	weather := make([]domain.ForecastDay, len(t.Weather))
	for i, w := range t.Weather {
		w.Date = w.Date.UTC()
		weather[i] = w
	}
	t.Weather = weather

	attractions := make([]domain.Attraction, len(t.Attractions))
	for i, a := range t.Attractions {
		a.CreatedAt = a.CreatedAt.UTC()
		attractions[i] = a
	}
	t.Attractions = attractions

	days := make([]domain.DailyItinerary, len(t.Itinerary))
	for i, d := range t.Itinerary {
		d.Date = d.Date.UTC()
		d.Activities = append(make([]domain.Activity, 0, len(d.Activities)), d.Activities...)
		days[i] = d
	}
	t.Itinerary = days

	t.Tags = append(make([]string, 0, len(t.Tags)), t.Tags...)
	if t.Meta == nil {
		t.Meta = domain.Meta{}
	}
}
