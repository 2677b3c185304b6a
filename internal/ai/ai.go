// Package ai talks to the generative-AI providers that draft itineraries.
// Each provider is one implementation of Provider, selected by configuration.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/httpclient"
	"github.com/pkordes/trip-planner/internal/prompt"
)

// Provider names accepted by New.
const (
	ProviderNone        = "none"
	ProviderGemini      = "gemini"
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
)

// Provider turns trip context into a prompt and sends it to a model.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// Prepare renders the provider-specific prompt for c.
	Prepare(c prompt.Context) (string, error)
	// Ask sends p and returns the model's raw text answer.
	// Every failure wraps domain.ErrProvider.
	Ask(ctx context.Context, p string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the provider's API root. Used by tests.
	BaseURL string
	// Template overrides prompt.DefaultTemplate.
	Template string
}

// New returns the provider named by cfg.Provider, or nil for ProviderNone.
func New(cfg Config, client *httpclient.Client) (Provider, error) {
	tmpl := cfg.Template
	if tmpl == "" {
		tmpl = prompt.DefaultTemplate
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderNone:
		return nil, nil
	case ProviderGemini:
		return newGemini(cfg, tmpl, client), nil
	case ProviderOpenAI:
		return newOpenAI(cfg, tmpl, client), nil
	case ProviderHuggingFace:
		return newHuggingFace(cfg, tmpl, client), nil
	default:
		return nil, fmt.Errorf("ai.New: unknown provider %q", cfg.Provider)
	}
}

// providerErr wraps err as a domain.ErrProvider failure for the named provider.
func providerErr(name string, err error) error {
	return fmt.Errorf("ai.%s: %w: %v", name, domain.ErrProvider, err)
}

// ParseItinerary decodes a model answer into daily itineraries. The answer
// must be a JSON array of days, optionally wrapped in a ``` code fence.
// Any failure wraps domain.ErrProvider.
func ParseItinerary(text string) ([]domain.DailyItinerary, error) {
	body := stripFence(text)
	if i, j := strings.Index(body, "["), strings.LastIndex(body, "]"); i >= 0 && j > i {
		body = body[i : j+1]
	}

	var raw []map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("ai.ParseItinerary: %w: %v", domain.ErrProvider, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("ai.ParseItinerary: %w: empty itinerary", domain.ErrProvider)
	}
	days := make([]domain.DailyItinerary, 0, len(raw))
	for i, m := range raw {
		d, err := domain.DailyItineraryFromCanonical(m)
		if err != nil {
			return nil, fmt.Errorf("ai.ParseItinerary: day %d: %w: %v", i+1, domain.ErrProvider, err)
		}
		days = append(days, d)
	}
	return days, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
