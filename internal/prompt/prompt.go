// Package prompt renders the itinerary request sent to the AI provider by
// substituting trip context into a text template.
package prompt

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/textutil"
)

// MaxDays is the longest itinerary the providers reliably produce.
const MaxDays = 4

// DefaultTemplate is the built-in itinerary template.
//
//go:embed itinerary.tmpl
var DefaultTemplate string

// Placeholder names understood by Build.
const (
	Location    = "location"
	StartDate   = "start_date"
	EndDate     = "end_date"
	Days        = "days"
	Weather     = "weather"
	Attractions = "attractions"
	Goals       = "goals"
	Itinerary   = "itinerary"
	TravelBy    = "travel_by"
)

const (
	noGoals       = "No goals defined."
	noAttractions = "No attractions listed."
	noWeather     = "no weather data available"
)

// placeholderRe matches {name} tokens.
var placeholderRe = regexp.MustCompile(`\{[a-z_]+\}`)

// Context is the trip data a template may reference. Zero-valued fields are
// treated as not supplied and their placeholders are left untouched, except
// Goals and Attractions which render a "none" line when Set.
type Context struct {
	City        string
	State       string
	StartDate   time.Time
	EndDate     time.Time
	TravelBy    domain.TravelMode
	Weather     []domain.ForecastDay
	Attractions []domain.Attraction
	Itinerary   []domain.DailyItinerary
	Goals       string

	// HasGoals and HasAttractions mark those fields as supplied even when empty.
	HasGoals       bool
	HasAttractions bool
}

// FromTrip builds a Context from every field of t.
func FromTrip(t domain.Trip) Context {
	return Context{
		City:           t.Destination.City,
		State:          t.Destination.State,
		StartDate:      t.StartDate,
		EndDate:        t.EndDate,
		TravelBy:       t.TravelBy,
		Weather:        t.Weather,
		Attractions:    t.Attractions,
		Itinerary:      t.Itinerary,
		Goals:          t.Goals,
		HasGoals:       true,
		HasAttractions: true,
	}
}

// DayCount returns the inclusive day count of the range clamped to MaxDays.
func DayCount(start, end time.Time) int {
	return min(textutil.DayCount(start, end), MaxDays)
}

// Build substitutes c into template in a single pass. Every substituted value
// has placeholder tokens stripped first, so injected text cannot trigger a
// further substitution. Placeholders with no supplied value are left as is.
func Build(template string, c Context) string {
	values := c.values()
	return placeholderRe.ReplaceAllStringFunc(template, func(tok string) string {
		v, ok := values[tok[1:len(tok)-1]]
		if !ok {
			return tok
		}
		return v
	})
}

func (c Context) values() map[string]string {
	v := map[string]string{}
	put := func(name, s string) { v[name] = strip(s) }

	if c.City != "" || c.State != "" {
		put(Location, domain.Place{City: c.City, State: c.State}.String())
	}
	if c.TravelBy != "" {
		put(TravelBy, string(c.TravelBy))
	}
	hasRange := !c.StartDate.IsZero() && !c.EndDate.IsZero()
	if !c.StartDate.IsZero() {
		put(StartDate, textutil.DisplayDate(c.StartDate))
	}
	if !c.EndDate.IsZero() {
		put(EndDate, textutil.DisplayDate(c.EndDate))
	}
	if hasRange {
		put(Days, fmt.Sprint(DayCount(c.StartDate, c.EndDate)))
		put(Weather, c.weatherLines())
	}
	if c.HasAttractions || len(c.Attractions) > 0 {
		put(Attractions, c.attractionLines())
	}
	if c.HasGoals || strings.TrimSpace(c.Goals) != "" {
		put(Goals, goalLines(c.Goals))
	}
	if len(c.Itinerary) > 0 {
		put(Itinerary, itineraryLines(c.Itinerary))
	}
	return v
}

// weatherLines renders one line per day of the full range; only {days} is
// clamped to MaxDays.
func (c Context) weatherLines() string {
	start := textutil.TruncateDay(c.StartDate)
	n := textutil.DayCount(c.StartDate, c.EndDate)
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i)
		desc := noWeather
		for _, f := range c.Weather {
			if f.SameDay(d) {
				desc = f.Summary()
				break
			}
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", textutil.DisplayDate(d), desc))
	}
	return strings.Join(lines, "\n")
}

func (c Context) attractionLines() string {
	if len(c.Attractions) == 0 {
		return noAttractions
	}
	where := domain.Place{City: c.City, State: c.State}.String()
	lines := make([]string, 0, len(c.Attractions))
	for _, a := range c.Attractions {
		lines = append(lines, fmt.Sprintf("- %s (%s)", a.Name, where))
	}
	return strings.Join(lines, "\n")
}

func goalLines(goals string) string {
	var lines []string
	for _, g := range strings.Split(goals, "\n") {
		g = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(g), "-*"))
		if g != "" {
			lines = append(lines, "- "+g)
		}
	}
	if len(lines) == 0 {
		return noGoals
	}
	return strings.Join(lines, "\n")
}

func itineraryLines(days []domain.DailyItinerary) string {
	var b strings.Builder
	for i, d := range days {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s", textutil.DisplayDate(d.Date), d.Title)
		for _, a := range d.Activities {
			fmt.Fprintf(&b, "\n  - %s-%s %s", a.StartTime, a.EndTime, a.Title)
			if a.Location != "" {
				fmt.Fprintf(&b, " @ %s", a.Location)
			}
		}
	}
	return b.String()
}

// strip removes every {name} token from s.
func strip(s string) string {
	return placeholderRe.ReplaceAllString(s, "")
}
