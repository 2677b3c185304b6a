package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/textutil"
)

// Tags lists the distinct tags carried by stored trips, grouped by slug and
// sorted by slug. A non-empty prefix keeps only slugs starting with its own
// slug form, so "Praia" and "praia" match the same tags.
func (s *TripService) Tags(ctx context.Context, prefix string) ([]domain.Tag, error) {
	trips, err := s.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Tags: %w", err)
	}
	want := textutil.Slugify(prefix)

	bySlug := map[string]*domain.Tag{}
	for _, t := range trips {
		seen := map[string]bool{}
		for _, name := range t.Tags {
			slug := textutil.Slugify(name)
			if slug == "" || seen[slug] || !strings.HasPrefix(slug, want) {
				continue
			}
			seen[slug] = true
			tag, ok := bySlug[slug]
			if !ok {
				tag = &domain.Tag{Name: name, Slug: slug}
				bySlug[slug] = tag
			}
			tag.Trips++
		}
	}

	out := make([]domain.Tag, 0, len(bySlug))
	for _, tag := range bySlug {
		out = append(out, *tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
