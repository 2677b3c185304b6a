package domain

import (
	"strings"
	"time"
)

// ForecastDay is one day's aggregated weather summary for the destination.
// Date is always stored in UTC; a calendar date becomes midnight UTC.
type ForecastDay struct {
	Date        time.Time `json:"date"`
	TempMin     float64   `json:"temp_min"`
	TempMax     float64   `json:"temp_max"`
	Description string    `json:"description"`
	WindSpeed   float64   `json:"wind_speed"`
}

// NewForecastDay validates and normalizes a forecast entry.
func NewForecastDay(date time.Time, tempMin, tempMax float64, description string, windSpeed float64) (ForecastDay, error) {
	f := ForecastDay{
		Date:        date.UTC(),
		TempMin:     tempMin,
		TempMax:     tempMax,
		Description: description,
		WindSpeed:   windSpeed,
	}
	if err := f.Validate(); err != nil {
		return ForecastDay{}, err
	}
	return f, nil
}

// Validate enforces the forecast invariants.
func (f ForecastDay) Validate() error {
	if f.Date.IsZero() {
		return validationf("forecast date is required")
	}
	if !finite(f.TempMin, f.TempMax, f.WindSpeed) {
		return validationf("forecast %s: temperatures and wind_speed must be finite numbers", f.Date.Format("2006-01-02"))
	}
	if err := ValidText("forecast description", f.Description); err != nil {
		return err
	}
	if f.TempMin > f.TempMax {
		return validationf("forecast %s: temp_min %v exceeds temp_max %v", f.Date.Format("2006-01-02"), f.TempMin, f.TempMax)
	}
	if f.WindSpeed < 0 {
		return validationf("forecast %s: wind_speed must not be negative", f.Date.Format("2006-01-02"))
	}
	return nil
}

// Canonical returns the forecast as plain values.
func (f ForecastDay) Canonical() map[string]any {
	return map[string]any{
		"date":        f.Date,
		"temp_min":    f.TempMin,
		"temp_max":    f.TempMax,
		"description": f.Description,
		"wind_speed":  f.WindSpeed,
	}
}

// ForecastDayFromCanonical rebuilds a ForecastDay from a canonical tree.
func ForecastDayFromCanonical(m map[string]any) (ForecastDay, error) {
	date, err := canonicalTime(m, "date")
	if err != nil {
		return ForecastDay{}, err
	}
	tmin, err := canonicalFloat(m, "temp_min")
	if err != nil {
		return ForecastDay{}, err
	}
	tmax, err := canonicalFloat(m, "temp_max")
	if err != nil {
		return ForecastDay{}, err
	}
	desc, err := canonicalString(m, "description")
	if err != nil {
		return ForecastDay{}, err
	}
	wind, err := canonicalFloat(m, "wind_speed")
	if err != nil {
		return ForecastDay{}, err
	}
	return NewForecastDay(date, tmin, tmax, desc, wind)
}

// SameDay reports whether the forecast falls on t's calendar day (UTC).
func (f ForecastDay) SameDay(t time.Time) bool {
	a, b := f.Date.UTC(), t.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Summary is a one-line human description used by the prompt builder.
func (f ForecastDay) Summary() string {
	d := strings.TrimSpace(f.Description)
	if d == "" {
		d = "no description"
	}
	return d
}
