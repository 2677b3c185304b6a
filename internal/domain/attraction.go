package domain

import (
	"fmt"
	"strings"
	"time"
)

// NoRating is the ReviewStars value for an attraction that has never been
// rated. It is distinct from 0, which means "rated zero stars".
const NoRating = -1.0

// Attraction is a point of interest near the destination.
type Attraction struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ReviewStars float64   `json:"review_stars"`
	ReviewCount int       `json:"review_count"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAttraction validates an attraction. A zero createdAt is replaced with now.
func NewAttraction(name, url string, stars float64, reviews int, description, image string, createdAt time.Time) (Attraction, error) {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	a := Attraction{
		Name:        name,
		URL:         url,
		ReviewStars: stars,
		ReviewCount: reviews,
		Description: description,
		Image:       image,
		CreatedAt:   createdAt.UTC(),
	}
	if err := a.Validate(); err != nil {
		return Attraction{}, err
	}
	return a, nil
}

// Validate enforces the attraction invariants.
func (a Attraction) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return validationf("attraction name is required")
	}
	if a.ReviewCount < 0 {
		return validationf("attraction %q: review_count must not be negative", a.Name)
	}
	for _, s := range []string{a.Name, a.URL, a.Description, a.Image} {
		if err := ValidText(fmt.Sprintf("attraction %q", a.Name), s); err != nil {
			return err
		}
	}
	if !finite(a.ReviewStars) || a.ReviewStars < NoRating || a.ReviewStars > 5 {
		return validationf("attraction %q: review_stars must be between -1 and 5", a.Name)
	}
	return nil
}

// Rated reports whether the attraction carries a rating.
func (a Attraction) Rated() bool { return a.ReviewStars != NoRating }

// Canonical returns the attraction as plain values.
func (a Attraction) Canonical() map[string]any {
	return map[string]any{
		"name":         a.Name,
		"url":          a.URL,
		"review_stars": a.ReviewStars,
		"review_count": a.ReviewCount,
		"description":  a.Description,
		"image":        a.Image,
		"created_at":   a.CreatedAt,
	}
}

// AttractionFromCanonical rebuilds an Attraction from a canonical tree.
func AttractionFromCanonical(m map[string]any) (Attraction, error) {
	name, err := canonicalString(m, "name")
	if err != nil {
		return Attraction{}, err
	}
	url, err := canonicalString(m, "url")
	if err != nil {
		return Attraction{}, err
	}
	stars, err := canonicalFloat(m, "review_stars")
	if err != nil {
		return Attraction{}, err
	}
	if _, ok := m["review_stars"]; !ok {
		stars = NoRating
	}
	count, err := canonicalInt(m, "review_count")
	if err != nil {
		return Attraction{}, err
	}
	desc, err := canonicalString(m, "description")
	if err != nil {
		return Attraction{}, err
	}
	image, err := canonicalString(m, "image")
	if err != nil {
		return Attraction{}, err
	}
	created, err := canonicalTime(m, "created_at")
	if err != nil {
		return Attraction{}, err
	}
	a := Attraction{
		Name:        name,
		URL:         url,
		ReviewStars: stars,
		ReviewCount: count,
		Description: desc,
		Image:       image,
		CreatedAt:   created,
	}
	if err := a.Validate(); err != nil {
		return Attraction{}, err
	}
	return a, nil
}
