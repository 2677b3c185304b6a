package attraction

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/httpclient"
)

// DefaultYelpURL is the Yelp Fusion API root.
const DefaultYelpURL = "https://api.yelp.com"

// yelpCategories restricts the search to sightseeing businesses.
const yelpCategories = "landmarks,museums,parks,beaches"

// YelpClient fetches attractions from the Yelp Fusion business search.
type YelpClient struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

// NewYelpClient constructs a client. An empty baseURL uses DefaultYelpURL.
func NewYelpClient(c *httpclient.Client, baseURL, apiKey string) *YelpClient {
	if baseURL == "" {
		baseURL = DefaultYelpURL
	}
	return &YelpClient{client: c, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

type yelpSearch struct {
	Businesses []yelpBusiness `json:"businesses"`
}

type yelpBusiness struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Rating      *float64 `json:"rating"`
	ReviewCount int      `json:"review_count"`
	ImageURL    string   `json:"image_url"`
	Categories  []struct {
		Title string `json:"title"`
	} `json:"categories"`
}

// Fetch returns up to limit attractions for city/state. Businesses without
// a rating get domain.NoRating.
func (y *YelpClient) Fetch(ctx context.Context, city, state string, limit int) ([]domain.Attraction, error) {
	q := url.Values{}
	q.Set("location", city+", "+state)
	q.Set("categories", yelpCategories)
	q.Set("sort_by", "best_match")
	q.Set("limit", strconv.Itoa(limit))

	header := http.Header{"Authorization": {"Bearer " + y.apiKey}}
	var res yelpSearch
	if err := y.client.GetJSON(ctx, y.baseURL+"/v3/businesses/search?"+q.Encode(), header, &res); err != nil {
		return nil, fmt.Errorf("attraction.YelpClient.Fetch: %w", err)
	}

	out := make([]domain.Attraction, 0, len(res.Businesses))
	for _, b := range res.Businesses {
		stars := domain.NoRating
		if b.Rating != nil {
			stars = *b.Rating
		}
		titles := make([]string, 0, len(b.Categories))
		for _, c := range b.Categories {
			titles = append(titles, c.Title)
		}
		a, err := domain.NewAttraction(b.Name, b.URL, stars, b.ReviewCount, strings.Join(titles, " / "), b.ImageURL, time.Time{})
		if err != nil {
			// malformed upstream record
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
