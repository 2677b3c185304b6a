package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/httpclient"
)

// DefaultNominatimURL is the public OpenStreetMap search endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimClient geocodes through the OpenStreetMap Nominatim search API.
type NominatimClient struct {
	client  *httpclient.Client
	baseURL string
	country string
}

// NewNominatimClient constructs a client. An empty baseURL uses DefaultNominatimURL.
func NewNominatimClient(c *httpclient.Client, baseURL, country string) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimClient{client: c, baseURL: strings.TrimRight(baseURL, "/"), country: country}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the first match for city/state.
func (n *NominatimClient) Geocode(ctx context.Context, city, state string) (domain.Coordinates, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("state", state)
	if n.country != "" {
		q.Set("countrycodes", strings.ToLower(n.country))
	}
	q.Set("format", "json")
	q.Set("limit", "1")

	header := http.Header{"User-Agent": {"trip-planner/1.0"}}
	var places []nominatimPlace
	if err := n.client.GetJSON(ctx, n.baseURL+"/search?"+q.Encode(), header, &places); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geo.NominatimClient.Geocode: %w", err)
	}
	if len(places) == 0 {
		return domain.Coordinates{}, fmt.Errorf("geo.NominatimClient.Geocode %s, %s: %w", city, state, domain.ErrLocationNotFound)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geo.NominatimClient.Geocode: lat %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geo.NominatimClient.Geocode: lon %q: %w", places[0].Lon, err)
	}
	return domain.Coordinates{Longitude: lon, Latitude: lat}, nil
}
