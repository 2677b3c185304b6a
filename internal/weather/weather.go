// Package weather fetches destination forecasts and trims them to a trip's
// date range.
package weather

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/httpclient"
	"github.com/pkordes/trip-planner/internal/textutil"
)

// Forecaster is the external weather collaborator. It returns one entry per
// calendar day, sorted by date.
type Forecaster interface {
	Forecast(ctx context.Context, city, state string) ([]domain.ForecastDay, error)
}

// FilterRange keeps the entries whose calendar day lies within [start, end]
// inclusive. Out-of-range entries are dropped. The result is never nil.
func FilterRange(days []domain.ForecastDay, start, end time.Time) []domain.ForecastDay {
	lo, hi := textutil.TruncateDay(start), textutil.TruncateDay(end)
	out := make([]domain.ForecastDay, 0, len(days))
	for _, d := range days {
		day := textutil.TruncateDay(d.Date)
		if day.Before(lo) || day.After(hi) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// DefaultOpenWeatherURL is the OpenWeatherMap API root.
const DefaultOpenWeatherURL = "https://api.openweathermap.org"

// OpenWeatherClient reads the OpenWeatherMap 5 day / 3 hour forecast and
// aggregates it per calendar day.
type OpenWeatherClient struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
	country string
}

// NewOpenWeatherClient constructs a client. An empty baseURL uses DefaultOpenWeatherURL.
func NewOpenWeatherClient(c *httpclient.Client, baseURL, apiKey, country string) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeatherClient{client: c, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, country: country}
}

type owmResponse struct {
	List []owmSlot `json:"list"`
}

type owmSlot struct {
	Dt   int64 `json:"dt"`
	Main struct {
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Forecast fetches the 5-day forecast for city/state.
func (c *OpenWeatherClient) Forecast(ctx context.Context, city, state string) ([]domain.ForecastDay, error) {
	loc := []string{city, state}
	if c.country != "" {
		loc = append(loc, c.country)
	}
	q := url.Values{}
	q.Set("q", strings.Join(loc, ","))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	var resp owmResponse
	if err := c.client.GetJSON(ctx, c.baseURL+"/data/2.5/forecast?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("weather.OpenWeatherClient.Forecast: %w", err)
	}
	days, err := aggregate(resp.List)
	if err != nil {
		return nil, fmt.Errorf("weather.OpenWeatherClient.Forecast: %w", err)
	}
	return days, nil
}

type dayAcc struct {
	date    time.Time
	min     float64
	max     float64
	wind    float64
	counts  map[string]int
	order   []string
	started bool
}

// aggregate folds 3-hour slots into one ForecastDay per UTC calendar day:
// min of mins, max of maxes, max wind speed and the most frequent
// description (first seen wins ties).
func aggregate(slots []owmSlot) ([]domain.ForecastDay, error) {
	byDay := map[time.Time]*dayAcc{}
	for _, s := range slots {
		day := textutil.TruncateDay(time.Unix(s.Dt, 0))
		acc, ok := byDay[day]
		if !ok {
			acc = &dayAcc{date: day, counts: map[string]int{}}
			byDay[day] = acc
		}
		if !acc.started {
			acc.min, acc.max, acc.wind = s.Main.TempMin, s.Main.TempMax, s.Wind.Speed
			acc.started = true
		} else {
			acc.min = min(acc.min, s.Main.TempMin)
			acc.max = max(acc.max, s.Main.TempMax)
			acc.wind = max(acc.wind, s.Wind.Speed)
		}
		if len(s.Weather) > 0 {
			d := s.Weather[0].Description
			if _, seen := acc.counts[d]; !seen {
				acc.order = append(acc.order, d)
			}
			acc.counts[d]++
		}
	}

	out := make([]domain.ForecastDay, 0, len(byDay))
	for _, acc := range byDay {
		desc, best := "", 0
		for _, d := range acc.order {
			if acc.counts[d] > best {
				desc, best = d, acc.counts[d]
			}
		}
		f, err := domain.NewForecastDay(acc.date, acc.min, acc.max, desc, acc.wind)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
