package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/csvcodec"
	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/textutil"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Columns is the stable field order of both export formats. In CSV the nested
// fields appear under their "_base64" names in the same position.
var Columns = []string{
	"id", "created_at", "title", "slug", "start_date", "end_date",
	"origin_city", "origin_state", "origin_longitude", "origin_latitude",
	"destination_city", "destination_state", "destination_longitude", "destination_latitude",
	"travel_by", "weather", "attractions", "itinerary", "goals", "notes", "tags", "meta",
}

// nestedColumns are stored base64-encoded in CSV.
var nestedColumns = map[string]bool{"weather": true, "attractions": true, "itinerary": true, "meta": true}

const base64Suffix = "_base64"

// tripDocument is the JSON shape of a trip. Field order matches Columns.
type tripDocument struct {
	ID                   uuid.UUID               `json:"id"`
	CreatedAt            time.Time               `json:"created_at"`
	Title                string                  `json:"title"`
	Slug                 string                  `json:"slug"`
	StartDate            time.Time               `json:"start_date"`
	EndDate              time.Time               `json:"end_date"`
	OriginCity           string                  `json:"origin_city"`
	OriginState          string                  `json:"origin_state"`
	OriginLongitude      *float64                `json:"origin_longitude"`
	OriginLatitude       *float64                `json:"origin_latitude"`
	DestinationCity      string                  `json:"destination_city"`
	DestinationState     string                  `json:"destination_state"`
	DestinationLongitude *float64                `json:"destination_longitude"`
	DestinationLatitude  *float64                `json:"destination_latitude"`
	TravelBy             domain.TravelMode       `json:"travel_by"`
	Weather              []domain.ForecastDay    `json:"weather"`
	Attractions          []domain.Attraction     `json:"attractions"`
	Itinerary            []domain.DailyItinerary `json:"itinerary"`
	Goals                string                  `json:"goals"`
	Notes                string                  `json:"notes"`
	Tags                 []string                `json:"tags"`
	Meta                 map[string]any          `json:"meta"`
}

func toDocument(t domain.Trip) tripDocument {
	d := tripDocument{
		ID:               t.ID,
		CreatedAt:        t.CreatedAt,
		Title:            t.Title,
		Slug:             t.Slug,
		StartDate:        t.StartDate,
		EndDate:          t.EndDate,
		OriginCity:       t.Origin.City,
		OriginState:      t.Origin.State,
		DestinationCity:  t.Destination.City,
		DestinationState: t.Destination.State,
		TravelBy:         t.TravelBy,
		Weather:          t.Weather,
		Attractions:      t.Attractions,
		Itinerary:        t.Itinerary,
		Goals:            t.Goals,
		Notes:            t.Notes,
		Tags:             t.Tags,
		Meta:             t.Meta,
	}
	if c := t.Origin.Coordinates; c != nil {
		d.OriginLongitude, d.OriginLatitude = &c.Longitude, &c.Latitude
	}
	if c := t.Destination.Coordinates; c != nil {
		d.DestinationLongitude, d.DestinationLatitude = &c.Longitude, &c.Latitude
	}
	return d
}

func (d tripDocument) trip() domain.Trip {
	return domain.Trip{
		ID:          d.ID,
		CreatedAt:   d.CreatedAt,
		Title:       d.Title,
		Slug:        d.Slug,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Origin:      domain.Place{City: d.OriginCity, State: d.OriginState, Coordinates: coordinates(d.OriginLongitude, d.OriginLatitude)},
		Destination: domain.Place{City: d.DestinationCity, State: d.DestinationState, Coordinates: coordinates(d.DestinationLongitude, d.DestinationLatitude)},
		TravelBy:    d.TravelBy,
		Weather:     d.Weather,
		Attractions: d.Attractions,
		Itinerary:   d.Itinerary,
		Goals:       d.Goals,
		Notes:       d.Notes,
		Tags:        d.Tags,
		Meta:        domain.Meta(d.Meta),
	}
}

func coordinates(lon, lat *float64) *domain.Coordinates {
	if lon == nil || lat == nil {
		return nil
	}
	return &domain.Coordinates{Longitude: *lon, Latitude: *lat}
}

// ---- JSON ------------------------------------------------------------------

// SerializeJSON renders the full trip as JSON with fields in Columns order
// and every date in RFC 3339.
func SerializeJSON(t domain.Trip) ([]byte, error) {
	b, err := json.MarshalIndent(toDocument(t), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("service.SerializeJSON: %w", err)
	}
	return b, nil
}

// decodeDocument reads a stored trip, keeping its identity.
func decodeDocument(doc []byte) (domain.Trip, error) {
	var d tripDocument
	if err := json.Unmarshal(doc, &d); err != nil {
		return domain.Trip{}, fmt.Errorf("decode trip record: %w", err)
	}
	return d.trip(), nil
}

// DeserializeJSON imports a JSON export. The document's id, created_at and
// slug are ignored and the trip goes through Create, so it gets a fresh
// identity and re-validated invariants. Every failure is an *domain.ImportError.
func (s *TripService) DeserializeJSON(ctx context.Context, data []byte, opts CreateOptions) (domain.Trip, error) {
	var d tripDocument
	if err := json.Unmarshal(data, &d); err != nil {
		return domain.Trip{}, &domain.ImportError{Format: FormatJSON, Stage: "parse", Err: err}
	}
	t, err := s.Create(ctx, domain.InputFromTrip(d.trip()), opts)
	if err != nil {
		return domain.Trip{}, &domain.ImportError{Format: FormatJSON, Stage: "validate", Err: err}
	}
	return t, nil
}

// ---- CSV -------------------------------------------------------------------

// CSVHeader returns the CSV header names in order.
func CSVHeader() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		if nestedColumns[c] {
			c += base64Suffix
		}
		out[i] = c
	}
	return out
}

// SerializeCSV renders t as one header line and one data line.
//   - weather, attractions, itinerary and meta are walked into text leaves
//     (nil becomes csvcodec.NullToken, strings are escaped), JSON encoded,
//     then base64 encoded under "<field>_base64".
//   - tags are escaped one by one and joined with commas.
//   - every other string is escaped with csvcodec; missing coordinates are
//     csvcodec.NullToken.
func SerializeCSV(t domain.Trip) ([]byte, error) {
	flat, err := flatten(t)
	if err != nil {
		return nil, fmt.Errorf("service.SerializeCSV: %w", err)
	}
	header := CSVHeader()
	row := make([]string, len(Columns))
	for i, c := range Columns {
		row[i] = flat[c]
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll([][]string{header, row}); err != nil {
		return nil, fmt.Errorf("service.SerializeCSV: %w", err)
	}
	return buf.Bytes(), nil
}

func flatten(t domain.Trip) (map[string]string, error) {
	nullableFloat := func(c *domain.Coordinates, lon bool) string {
		if c == nil {
			return csvcodec.NullToken
		}
		if lon {
			return domain.FormatFloat(c.Longitude)
		}
		return domain.FormatFloat(c.Latitude)
	}

	flat := map[string]string{
		"id":                    t.ID.String(),
		"created_at":            formatTime(t.CreatedAt),
		"title":                 csvcodec.Escape(t.Title),
		"slug":                  csvcodec.Escape(t.Slug),
		"start_date":            formatTime(t.StartDate),
		"end_date":              formatTime(t.EndDate),
		"origin_city":           csvcodec.Escape(t.Origin.City),
		"origin_state":          csvcodec.Escape(t.Origin.State),
		"origin_longitude":      nullableFloat(t.Origin.Coordinates, true),
		"origin_latitude":       nullableFloat(t.Origin.Coordinates, false),
		"destination_city":      csvcodec.Escape(t.Destination.City),
		"destination_state":     csvcodec.Escape(t.Destination.State),
		"destination_longitude": nullableFloat(t.Destination.Coordinates, true),
		"destination_latitude":  nullableFloat(t.Destination.Coordinates, false),
		"travel_by":             csvcodec.Escape(string(t.TravelBy)),
		"goals":                 csvcodec.Escape(t.Goals),
		"notes":                 csvcodec.Escape(t.Notes),
		"tags":                  joinTags(t.Tags),
	}

	nested := map[string]any{
		"weather":     canonicalList(t.Weather, domain.ForecastDay.Canonical),
		"attractions": canonicalList(t.Attractions, domain.Attraction.Canonical),
		"itinerary":   canonicalList(t.Itinerary, domain.DailyItinerary.Canonical),
		"meta":        map[string]any(t.Meta),
	}
	for name, tree := range nested {
		b, err := json.Marshal(textLeaves(tree))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		flat[name] = base64.StdEncoding.EncodeToString(b)
	}
	return flat, nil
}

func canonicalList[T any](items []T, canon func(T) map[string]any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = canon(it)
	}
	return out
}

// textLeaves returns a copy of v with every scalar leaf as text: nil becomes
// the null token, strings are escaped, times are RFC 3339 and numbers use the
// shortest exact form.
func textLeaves(v any) any {
	switch x := v.(type) {
	case nil:
		return csvcodec.NullToken
	case string:
		return csvcodec.Escape(x)
	case time.Time:
		return formatTime(x)
	case float64:
		return domain.FormatFloat(x)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = textLeaves(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = textLeaves(item)
		}
		return out
	default:
		return csvcodec.Escape(fmt.Sprint(x))
	}
}

// plainLeaves reverses textLeaves: the null token becomes nil and every other
// string is unescaped.
func plainLeaves(v any) (any, error) {
	switch x := v.(type) {
	case string:
		if csvcodec.IsNull(x) {
			return nil, nil
		}
		return csvcodec.Unescape(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			p, err := plainLeaves(item)
			if err != nil {
				return nil, err
			}
			out[k] = p
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			p, err := plainLeaves(item)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	default:
		return x, nil
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// DeserializeCSV imports a CSV export. It requires exactly one data row,
// decodes the base64 columns, unescapes every string, ignores id, created_at
// and slug, then runs Create. Every failure is an *domain.ImportError.
func (s *TripService) DeserializeCSV(ctx context.Context, data []byte, opts CreateOptions) (domain.Trip, error) {
	in, err := parseCSV(data)
	if err != nil {
		return domain.Trip{}, err
	}
	t, err := s.Create(ctx, in, opts)
	if err != nil {
		return domain.Trip{}, &domain.ImportError{Format: FormatCSV, Stage: "validate", Err: err}
	}
	return t, nil
}

func parseCSV(data []byte) (domain.TripInput, error) {
	fail := func(stage, field string, err error) (domain.TripInput, error) {
		return domain.TripInput{}, &domain.ImportError{Format: FormatCSV, Stage: stage, Field: field, Err: err}
	}

	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fail("parse", "", errors.New("missing header row"))
	}
	if err != nil {
		return fail("parse", "", err)
	}
	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fail("parse", "", errors.New("missing data row"))
	}
	if err != nil {
		return fail("parse", "", err)
	}
	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		return fail("parse", "", errors.New("expected exactly one data row"))
	}

	known := map[string]bool{}
	for _, c := range CSVHeader() {
		known[c] = true
	}
	cells := make(map[string]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if !known[name] {
			return fail("parse", name, errors.New("unknown column"))
		}
		cells[name] = row[i]
	}

	text := func(col string) (string, error) {
		v, ok := cells[col]
		if !ok || csvcodec.IsNull(v) {
			return "", nil
		}
		return csvcodec.Unescape(v)
	}
	var (
		in        domain.TripInput
		fieldErr  error
		fieldName string
	)
	str := func(col string) string {
		if fieldErr != nil {
			return ""
		}
		v, err := text(col)
		if err != nil {
			fieldErr, fieldName = err, col
		}
		return v
	}
	date := func(col string) time.Time {
		v := str(col)
		if fieldErr != nil || v == "" {
			return time.Time{}
		}
		t, err := textutil.ParseDate(v)
		if err != nil {
			fieldErr, fieldName = err, col
		}
		return t
	}
	coord := func(prefix string) *domain.Coordinates {
		lonRaw, latRaw := str(prefix+"_longitude"), str(prefix+"_latitude")
		if fieldErr != nil || lonRaw == "" || latRaw == "" {
			return nil
		}
		lon, err := parseFinite(lonRaw)
		if err != nil {
			fieldErr, fieldName = err, prefix+"_longitude"
			return nil
		}
		lat, err := parseFinite(latRaw)
		if err != nil {
			fieldErr, fieldName = err, prefix+"_latitude"
			return nil
		}
		return &domain.Coordinates{Longitude: lon, Latitude: lat}
	}

	in.Title = str("title")
	in.StartDate = date("start_date")
	in.EndDate = date("end_date")
	in.Origin = domain.Place{City: str("origin_city"), State: str("origin_state"), Coordinates: coord("origin")}
	in.Destination = domain.Place{City: str("destination_city"), State: str("destination_state"), Coordinates: coord("destination")}
	in.TravelBy = domain.TravelMode(str("travel_by"))
	in.Goals = str("goals")
	in.Notes = str("notes")
	if fieldErr == nil {
		if in.Tags, err = splitTags(cells["tags"]); err != nil {
			fieldErr, fieldName = err, "tags"
		}
	}
	if fieldErr != nil {
		return fail("decode", fieldName, fieldErr)
	}

	for col := range nestedColumns {
		raw, ok := cells[col+base64Suffix]
		if !ok || csvcodec.IsNull(raw) {
			continue
		}
		tree, err := decodeNested(raw)
		if err != nil {
			return fail("decode", col+base64Suffix, err)
		}
		if err := installNested(&in, col, tree); err != nil {
			return fail("decode", col+base64Suffix, err)
		}
	}
	return in, nil
}

// parseFinite parses a decimal cell, rejecting NaN and infinities, which
// have no JSON form.
func parseFinite(raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return f, nil
}

func joinTags(tags []string) string {
	escaped := make([]string, len(tags))
	for i, tag := range tags {
		escaped[i] = csvcodec.Escape(tag)
	}
	return strings.Join(escaped, ",")
}

// splitTags reverses joinTags. An empty cell is an empty list.
func splitTags(cell string) ([]string, error) {
	if cell == "" || csvcodec.IsNull(cell) {
		return []string{}, nil
	}
	parts := strings.Split(cell, ",")
	for i, p := range parts {
		tag, err := csvcodec.Unescape(p)
		if err != nil {
			return nil, err
		}
		parts[i] = tag
	}
	return parts, nil
}

func decodeNested(raw string) (any, error) {
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return plainLeaves(tree)
}

func installNested(in *domain.TripInput, col string, tree any) error {
	if col == "meta" {
		switch m := tree.(type) {
		case nil:
			return nil
		case map[string]any:
			in.Meta = domain.Meta(m)
			return nil
		default:
			return fmt.Errorf("expected object, got %T", tree)
		}
	}

	var items []map[string]any
	switch list := tree.(type) {
	case nil:
		return nil
	case []any:
		items = make([]map[string]any, 0, len(list))
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("item %d: expected object, got %T", i, item)
			}
			items = append(items, m)
		}
	default:
		return fmt.Errorf("expected list, got %T", tree)
	}

	switch col {
	case "weather":
		in.Weather = make([]domain.ForecastDay, 0, len(items))
		for _, m := range items {
			f, err := domain.ForecastDayFromCanonical(m)
			if err != nil {
				return err
			}
			in.Weather = append(in.Weather, f)
		}
	case "attractions":
		in.Attractions = make([]domain.Attraction, 0, len(items))
		for _, m := range items {
			a, err := domain.AttractionFromCanonical(m)
			if err != nil {
				return err
			}
			in.Attractions = append(in.Attractions, a)
		}
	case "itinerary":
		in.Itinerary = make([]domain.DailyItinerary, 0, len(items))
		for _, m := range items {
			d, err := domain.DailyItineraryFromCanonical(m)
			if err != nil {
				return err
			}
			in.Itinerary = append(in.Itinerary, d)
		}
	}
	return nil
}

// Export renders the stored trip in the given format.
func (s *TripService) Export(ctx context.Context, id uuid.UUID, format string) ([]byte, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Export: %w", err)
	}
	return Encode(t, format)
}

// Encode serializes an already loaded trip in the given format.
func Encode(t domain.Trip, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return SerializeJSON(t)
	case FormatCSV:
		return SerializeCSV(t)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", domain.ErrValidation, format)
	}
}

// Import creates a trip from an export document in the given format.
func (s *TripService) Import(ctx context.Context, data []byte, format string, opts CreateOptions) (domain.Trip, error) {
	switch format {
	case FormatJSON, "":
		return s.DeserializeJSON(ctx, data, opts)
	case FormatCSV:
		return s.DeserializeCSV(ctx, data, opts)
	default:
		return domain.Trip{}, fmt.Errorf("%w: unknown import format %q", domain.ErrValidation, format)
	}
}
