// Package domain contains the core data types for the trip planner.
// It depends only on textutil and uuid and is imported by every other
// internal package (repo, service, handler, clients).
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/textutil"
)

// TravelMode is how the traveller gets from origin to destination.
type TravelMode string

const (
	TravelDriving   TravelMode = "driving"
	TravelWalking   TravelMode = "walking"
	TravelBicycling TravelMode = "bicycling"
	TravelTransit   TravelMode = "transit"
	TravelFlying    TravelMode = "flying"
)

// TravelModes lists every accepted mode in declaration order.
var TravelModes = []TravelMode{TravelDriving, TravelWalking, TravelBicycling, TravelTransit, TravelFlying}

// ParseTravelMode returns the mode named by s. An empty string means driving.
func ParseTravelMode(s string) (TravelMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TravelDriving, nil
	}
	for _, m := range TravelModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", validationf("travel_by must be one of driving, walking, bicycling, transit, flying (got %q)", s)
}

// Coordinates is a longitude/latitude pair in decimal degrees.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Validate checks the pair is on the globe.
func (c Coordinates) Validate() error {
	if !finite(c.Longitude, c.Latitude) || c.Longitude < -180 || c.Longitude > 180 || c.Latitude < -90 || c.Latitude > 90 {
		return validationf("coordinates (%v, %v) are out of range", c.Longitude, c.Latitude)
	}
	return nil
}

// Place is a city/state pair with its resolved coordinates.
// Coordinates is non-nil exactly when both City and State are set.
type Place struct {
	City        string
	State       string
	Coordinates *Coordinates
}

// Named reports whether both City and State are present.
func (p Place) Named() bool {
	return strings.TrimSpace(p.City) != "" && strings.TrimSpace(p.State) != ""
}

// SameLocation reports whether p and o name the same city/state.
func (p Place) SameLocation(o Place) bool {
	return p.City == o.City && p.State == o.State
}

func (p Place) String() string {
	if !p.Named() {
		return p.City + p.State
	}
	return p.City + ", " + p.State
}

// Meta holds auxiliary fields (feedback text, sentiment label) that are not
// part of the core schema.
type Meta map[string]any

// Trip is the aggregate root: one planned journey including derived and
// fetched data.
type Trip struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	Title       string
	Slug        string
	StartDate   time.Time
	EndDate     time.Time
	Origin      Place
	Destination Place
	TravelBy    TravelMode
	Weather     []ForecastDay
	Attractions []Attraction
	Itinerary   []DailyItinerary
	Goals       string
	Notes       string
	Tags        []string
	Meta        Meta
}

// Days returns the inclusive number of calendar days the trip spans.
func (t Trip) Days() int {
	return textutil.DayCount(t.StartDate, t.EndDate)
}

// HasTag reports whether the trip carries tag (case-insensitive).
func (t Trip) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}

// TripInput carries the caller-supplied fields for creating a trip.
// It has no ID, CreatedAt or Slug: those are always assigned by the service.
// A nil Weather asks the service to fetch a forecast for the destination.
type TripInput struct {
	Title       string
	StartDate   time.Time
	EndDate     time.Time
	Origin      Place
	Destination Place
	TravelBy    TravelMode
	Weather     []ForecastDay
	Attractions []Attraction
	Itinerary   []DailyItinerary
	Goals       string
	Notes       string
	Tags        []string
	Meta        Meta
}

// InputFromTrip copies the editable fields of t into a TripInput.
// Identity and derived fields are dropped.
func InputFromTrip(t Trip) TripInput {
	return TripInput{
		Title:       t.Title,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Origin:      t.Origin,
		Destination: t.Destination,
		TravelBy:    t.TravelBy,
		Weather:     t.Weather,
		Attractions: t.Attractions,
		Itinerary:   t.Itinerary,
		Goals:       t.Goals,
		Notes:       t.Notes,
		Tags:        t.Tags,
		Meta:        t.Meta,
	}
}

// TripPatch is a partial update. Nil fields are left unchanged.
//
// Side effects when applied by the service:
//   - Title changed: Slug is regenerated.
//   - OriginCity or OriginState changed: origin coordinates are re-resolved,
//     or cleared when the new pair is incomplete.
//   - DestinationCity or DestinationState changed: destination coordinates are
//     re-resolved and, unless Weather is also supplied, the forecast is re-fetched.
//   - StartDate or EndDate changed: the range is re-validated and weather is
//     re-filtered to it.
type TripPatch struct {
	Title            *string
	StartDate        *time.Time
	EndDate          *time.Time
	OriginCity       *string
	OriginState      *string
	DestinationCity  *string
	DestinationState *string
	TravelBy         *TravelMode
	Weather          *[]ForecastDay
	Attractions      *[]Attraction
	Itinerary        *[]DailyItinerary
	Goals            *string
	Notes            *string
	Tags             *[]string
	Meta             *Meta
}

// ValidateTags rejects blank tags and tags containing commas (the CSV export
// joins tags with commas).
func ValidateTags(tags []string) error {
	for i, tag := range tags {
		if err := ValidText(fmt.Sprintf("tags[%d]", i), tag); err != nil {
			return err
		}
		if strings.TrimSpace(tag) == "" {
			return validationf("tags[%d] must not be blank", i)
		}
		if strings.Contains(tag, ",") {
			return validationf("tag %q must not contain a comma", tag)
		}
	}
	return nil
}

// NormalizeMeta returns a copy of m whose leaves are text: strings stay,
// nil stays nil, numbers and booleans become their string form, and nested
// maps and lists are walked. A nil map becomes an empty one.
func NormalizeMeta(m Meta) (Meta, error) {
	out := make(Meta, len(m))
	for k, v := range m {
		if err := ValidText("meta key", k); err != nil {
			return nil, err
		}
		n, err := normalizeMetaValue(v)
		if err != nil {
			return nil, fmt.Errorf("meta.%s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func normalizeMetaValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, ValidText("value", x)
	case float64:
		if !finite(x) {
			return nil, validationf("%v is not a finite number", x)
		}
		return FormatFloat(x), nil
	case float32:
		if !finite(float64(x)) {
			return nil, validationf("%v is not a finite number", x)
		}
		return FormatFloat(float64(x)), nil
	case int, int32, int64, bool:
		return fmt.Sprint(x), nil
	case fmt.Stringer:
		return x.String(), ValidText("value", x.String())
	case map[string]any:
		m, err := NormalizeMeta(Meta(x))
		return map[string]any(m), err
	case Meta:
		m, err := NormalizeMeta(x)
		return map[string]any(m), err
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			n, err := normalizeMetaValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			if err := ValidText("value", s); err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, validationf("unsupported meta value of type %T", v)
	}
}

// SortedMetaKeys returns the keys of m in lexical order.
func SortedMetaKeys(m Meta) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
