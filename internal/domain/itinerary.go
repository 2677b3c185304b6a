package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time within a day, stored as minutes since midnight.
// It serializes as "HH:MM".
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" (24-hour) or "HH:MM:SS"; seconds are ignored.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05", "3:04PM", "3:04 PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, validationf("invalid time of day %q", s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Activity is one scheduled block within a day.
type Activity struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
}

// NewActivity validates an activity. EndTime must be strictly after StartTime.
func NewActivity(title, description, location string, start, end TimeOfDay) (Activity, error) {
	a := Activity{Title: title, Description: description, Location: location, StartTime: start, EndTime: end}
	if err := a.Validate(); err != nil {
		return Activity{}, err
	}
	return a, nil
}

// Validate enforces the activity invariants.
//   - Title must be non-empty.
//   - Times must lie within one day.
//   - EndTime must be strictly after StartTime.
func (a Activity) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return validationf("activity title is required")
	}
	for _, s := range []string{a.Title, a.Description, a.Location} {
		if err := ValidText(fmt.Sprintf("activity %q", a.Title), s); err != nil {
			return err
		}
	}
	if a.StartTime < 0 || a.EndTime >= 24*60 {
		return validationf("activity %q: times must be within one day", a.Title)
	}
	if a.EndTime <= a.StartTime {
		return validationf("activity %q: end_time %s must be after start_time %s", a.Title, a.EndTime, a.StartTime)
	}
	return nil
}

// Canonical returns the activity as plain values.
func (a Activity) Canonical() map[string]any {
	return map[string]any{
		"title":       a.Title,
		"description": a.Description,
		"location":    a.Location,
		"start_time":  a.StartTime.String(),
		"end_time":    a.EndTime.String(),
	}
}

// ActivityFromCanonical rebuilds an Activity from a canonical tree.
func ActivityFromCanonical(m map[string]any) (Activity, error) {
	title, err := canonicalString(m, "title")
	if err != nil {
		return Activity{}, err
	}
	desc, err := canonicalString(m, "description")
	if err != nil {
		return Activity{}, err
	}
	loc, err := canonicalString(m, "location")
	if err != nil {
		return Activity{}, err
	}
	startRaw, err := canonicalString(m, "start_time")
	if err != nil {
		return Activity{}, err
	}
	endRaw, err := canonicalString(m, "end_time")
	if err != nil {
		return Activity{}, err
	}
	start, err := ParseTimeOfDay(startRaw)
	if err != nil {
		return Activity{}, err
	}
	end, err := ParseTimeOfDay(endRaw)
	if err != nil {
		return Activity{}, err
	}
	return NewActivity(title, desc, loc, start, end)
}

// DailyItinerary is the plan for one calendar day.
type DailyItinerary struct {
	Date       time.Time  `json:"date"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

// Validate checks the day and every activity in it.
func (d DailyItinerary) Validate() error {
	if d.Date.IsZero() {
		return validationf("itinerary date is required")
	}
	if err := ValidText("itinerary title", d.Title); err != nil {
		return err
	}
	for _, a := range d.Activities {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Canonical returns the day as plain values with its activities in order.
func (d DailyItinerary) Canonical() map[string]any {
	acts := make([]any, len(d.Activities))
	for i, a := range d.Activities {
		acts[i] = a.Canonical()
	}
	return map[string]any{
		"date":       d.Date,
		"title":      d.Title,
		"activities": acts,
	}
}

// DailyItineraryFromCanonical rebuilds a day and its activities.
func DailyItineraryFromCanonical(m map[string]any) (DailyItinerary, error) {
	date, err := canonicalTime(m, "date")
	if err != nil {
		return DailyItinerary{}, err
	}
	title, err := canonicalString(m, "title")
	if err != nil {
		return DailyItinerary{}, err
	}
	raw, err := canonicalList(m, "activities")
	if err != nil {
		return DailyItinerary{}, err
	}
	d := DailyItinerary{Date: date, Title: title, Activities: make([]Activity, 0, len(raw))}
	for _, item := range raw {
		a, err := ActivityFromCanonical(item)
		if err != nil {
			return DailyItinerary{}, err
		}
		d.Activities = append(d.Activities, a)
	}
	if err := d.Validate(); err != nil {
		return DailyItinerary{}, err
	}
	return d, nil
}
