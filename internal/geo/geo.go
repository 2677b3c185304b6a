// Package geo resolves city/state pairs to coordinates.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkordes/trip-planner/internal/domain"
)

// Geocoder is the external geocoding collaborator.
// Implementations return domain.ErrLocationNotFound when nothing matches.
type Geocoder interface {
	Geocode(ctx context.Context, city, state string) (domain.Coordinates, error)
}

// Resolver resolves coordinates, preferring values already known to the
// caller over a geocoder call.
type Resolver struct {
	geocoder Geocoder
}

// NewResolver constructs a Resolver backed by g.
func NewResolver(g Geocoder) *Resolver {
	return &Resolver{geocoder: g}
}

// Resolve returns known unchanged when it is non-nil, without calling the
// geocoder. Otherwise it geocodes city/state. Any geocoder failure is reported
// as domain.ErrLocationNotFound with the underlying cause attached.
func (r *Resolver) Resolve(ctx context.Context, city, state string, known *domain.Coordinates) (domain.Coordinates, error) {
	if known != nil {
		return *known, nil
	}
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if city == "" || state == "" {
		return domain.Coordinates{}, fmt.Errorf("geo.Resolver.Resolve: %w: city and state are required", domain.ErrLocationNotFound)
	}
	if r.geocoder == nil {
		return domain.Coordinates{}, fmt.Errorf("geo.Resolver.Resolve %s, %s: %w: no geocoder configured", city, state, domain.ErrLocationNotFound)
	}

	c, err := r.geocoder.Geocode(ctx, city, state)
	if err != nil {
		if errors.Is(err, domain.ErrLocationNotFound) {
			return domain.Coordinates{}, fmt.Errorf("geo.Resolver.Resolve %s, %s: %w", city, state, err)
		}
		return domain.Coordinates{}, fmt.Errorf("geo.Resolver.Resolve %s, %s: %w: %v", city, state, domain.ErrLocationNotFound, err)
	}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geo.Resolver.Resolve %s, %s: %w: %v", city, state, domain.ErrLocationNotFound, err)
	}
	return c, nil
}
