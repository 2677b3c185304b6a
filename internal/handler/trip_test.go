package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/handler"
	"github.com/pkordes/trip-planner/internal/httpclient"
	"github.com/pkordes/trip-planner/internal/service"
)

// mockTripServicer is a test double for handler.TripServicer.
// Set only the method fields your test needs.
type mockTripServicer struct {
	create         func(ctx context.Context, in domain.TripInput, opts service.CreateOptions) (domain.Trip, error)
	get            func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	list           func(ctx context.Context, opts domain.ListOptions) (domain.Page, error)
	update         func(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error)
	delete         func(ctx context.Context, id uuid.UUID) (bool, error)
	recordFeedback func(ctx context.Context, id uuid.UUID, text string) (domain.Trip, error)
	importTrip     func(ctx context.Context, data []byte, format string, opts service.CreateOptions) (domain.Trip, error)
	tags           func(ctx context.Context, prefix string) ([]domain.Tag, error)
}

func (m *mockTripServicer) Create(ctx context.Context, in domain.TripInput, opts service.CreateOptions) (domain.Trip, error) {
	return m.create(ctx, in, opts)
}
func (m *mockTripServicer) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.get(ctx, id)
}
func (m *mockTripServicer) List(ctx context.Context, opts domain.ListOptions) (domain.Page, error) {
	return m.list(ctx, opts)
}
func (m *mockTripServicer) Update(ctx context.Context, id uuid.UUID, patch domain.TripPatch) (domain.Trip, error) {
	return m.update(ctx, id, patch)
}
func (m *mockTripServicer) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.delete(ctx, id)
}
func (m *mockTripServicer) RecordFeedback(ctx context.Context, id uuid.UUID, text string) (domain.Trip, error) {
	return m.recordFeedback(ctx, id, text)
}
func (m *mockTripServicer) Import(ctx context.Context, data []byte, format string, opts service.CreateOptions) (domain.Trip, error) {
	return m.importTrip(ctx, data, format, opts)
}

func (m *mockTripServicer) Tags(ctx context.Context, prefix string) ([]domain.Tag, error) {
	return m.tags(ctx, prefix)
}

// compile-time check: mockTripServicer must satisfy handler.TripServicer.
var _ handler.TripServicer = (*mockTripServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mock into a chi router.
// This mirrors how main.go wires it in production.
func newHTTPHandler(svc handler.TripServicer) http.Handler {
	return handler.NewServer(svc, nil, nil, handler.Options{VerifyDates: true}).Routes()
}

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:          uuid.New(),
		CreatedAt:   time.Date(2024, 11, 10, 9, 30, 0, 0, time.UTC),
		Title:       "Summer Trip",
		Slug:        "summer-trip",
		StartDate:   time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 11, 17, 0, 0, 0, 0, time.UTC),
		Origin:      domain.Place{City: "Sorocaba", State: "SP", Coordinates: &domain.Coordinates{Longitude: -47.4584, Latitude: -23.5015}},
		Destination: domain.Place{City: "Arraial do Cabo", State: "RJ", Coordinates: &domain.Coordinates{Longitude: -42.0278, Latitude: -22.9661}},
		TravelBy:    domain.TravelDriving,
		Tags:        []string{"beach"},
		Meta:        domain.Meta{},
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func validCreateBody() map[string]any {
	return map[string]any{
		"title":             "Summer Trip",
		"start_date":        "2024-11-15",
		"end_date":          "2024-11-17",
		"origin_city":       "Sorocaba",
		"origin_state":      "SP",
		"destination_city":  "Arraial do Cabo",
		"destination_state": "RJ",
		"travel_by":         "driving",
		"tags":              []string{"beach"},
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

// ---- POST /trips -----------------------------------------------------------

func TestCreateTrip_201(t *testing.T) {
	fixture := tripFixture()
	var gotIn domain.TripInput
	var gotOpts service.CreateOptions
	svc := &mockTripServicer{
		create: func(_ context.Context, in domain.TripInput, opts service.CreateOptions) (domain.Trip, error) {
			gotIn, gotOpts = in, opts
			return fixture, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, validCreateBody()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/trips/"+fixture.ID.String(), rec.Header().Get("Location"))
	assert.Equal(t, service.CreateOptions{VerifyDates: true, Persist: true}, gotOpts)
	assert.Equal(t, "Arraial do Cabo", gotIn.Destination.City)
	assert.Equal(t, time.Date(2024, 11, 15, 0, 0, 0, 0, time.UTC), gotIn.StartDate)
	assert.Nil(t, gotIn.Weather, "weather is always fetched for new trips")

	var resp handler.TripResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.ID, resp.ID)
	assert.Equal(t, 3, resp.Days)
	assert.Equal(t, "2024-11-15", resp.StartDate.String())
	require.NotNil(t, resp.Destination.Longitude)
	assert.InDelta(t, -42.0278, *resp.Destination.Longitude, 1e-9)
	assert.NotNil(t, resp.Weather, "empty collections encode as []")
}

func TestCreateTrip_KnownCoordinatesArePassedThrough(t *testing.T) {
	var gotIn domain.TripInput
	svc := &mockTripServicer{
		create: func(_ context.Context, in domain.TripInput, _ service.CreateOptions) (domain.Trip, error) {
			gotIn = in
			return tripFixture(), nil
		},
	}
	body := validCreateBody()
	body["destination_longitude"] = -42.0278
	body["destination_latitude"] = -22.9661

	req := httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, body))
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, gotIn.Destination.Coordinates)
	assert.Equal(t, -22.9661, gotIn.Destination.Coordinates.Latitude)
}

func TestCreateTrip_422_RequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(map[string]any)
		field string
	}{
		{"missing title", func(b map[string]any) { delete(b, "title") }, "title"},
		{"missing start date", func(b map[string]any) { delete(b, "start_date") }, "start_date"},
		{"missing destination", func(b map[string]any) { delete(b, "destination_city") }, "destination_city"},
		{"unknown travel mode", func(b map[string]any) { b["travel_by"] = "teleport" }, "travel_by"},
		{"blank tag", func(b map[string]any) { b["tags"] = []string{""} }, "tags[0]"},
		{"latitude out of range", func(b map[string]any) { b["destination_latitude"] = 91.0 }, "destination_latitude"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockTripServicer{
				create: func(context.Context, domain.TripInput, service.CreateOptions) (domain.Trip, error) {
					t.Fatal("service must not be called for an invalid request")
					return domain.Trip{}, nil
				},
			}
			body := validCreateBody()
			tc.edit(body)

			req := httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, body))
			rec := httptest.NewRecorder()

			newHTTPHandler(svc).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			detail := decodeError(t, rec)
			assert.Equal(t, "validation_error", detail.Code)
			assert.Contains(t, detail.Message, tc.field)
		})
	}
}

func TestCreateTrip_422_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/trips", bytes.NewBufferString(`{"title":`))
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockTripServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "malformed JSON")
}

func TestCreateTrip_422_UnknownField(t *testing.T) {
	body := validCreateBody()
	body["name"] = "legacy field"
	req := httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, body))
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockTripServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateTrip_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"business rule", fmt.Errorf("service.TripService.Create: %w: start_date must not be after end_date", domain.ErrValidation), http.StatusUnprocessableEntity, "validation_error"},
		{"unknown place", fmt.Errorf("geo.Resolver.Resolve: %w", domain.ErrLocationNotFound), http.StatusUnprocessableEntity, "location_not_found"},
		{"forecast breaker open", fmt.Errorf("service.TripService.Create: weather for Paraty/RJ: %w", httpclient.ErrUnavailable), http.StatusServiceUnavailable, "upstream_unavailable"},
		{"forecast rejected", fmt.Errorf("service.TripService.Create: weather for Paraty/RJ: %w", &httpclient.StatusError{Status: http.StatusUnauthorized, Body: "invalid api key"}), http.StatusBadGateway, "upstream_error"},
		{"store failure", fmt.Errorf("repo.PgStore.Save: connection refused"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockTripServicer{
				create: func(context.Context, domain.TripInput, service.CreateOptions) (domain.Trip, error) {
					return domain.Trip{}, tc.err
				},
			}
			req := httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, validCreateBody()))
			rec := httptest.NewRecorder()

			newHTTPHandler(svc).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}
}

func TestCreateTrip_ValidationMessageIsUnwrapped(t *testing.T) {
	svc := &mockTripServicer{
		create: func(context.Context, domain.TripInput, service.CreateOptions) (domain.Trip, error) {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w: title is required", domain.ErrValidation)
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/trips", jsonBody(t, validCreateBody()))
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, "title is required", decodeError(t, rec).Message)
}

// ---- GET /trips ------------------------------------------------------------

func TestListTrips_200(t *testing.T) {
	var got domain.ListOptions
	svc := &mockTripServicer{
		list: func(_ context.Context, opts domain.ListOptions) (domain.Page, error) {
			got = opts
			return domain.Page{Items: []domain.Trip{tripFixture(), tripFixture()}, Total: 7, Page: opts.Page, Limit: opts.Limit}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/trips?page=2&limit=2&tag=beach", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ListOptions{Page: 2, Limit: 2, Tag: "beach"}, got)

	var resp handler.TripListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, handler.Pagination{Page: 2, Limit: 2, Total: 7}, resp.Pagination)
}

func TestListTrips_200_Empty(t *testing.T) {
	svc := &mockTripServicer{
		list: func(_ context.Context, opts domain.ListOptions) (domain.Page, error) {
			return domain.Page{Items: []domain.Trip{}, Page: opts.Page, Limit: opts.Limit}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	// Must be a JSON array, not null.
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListTrips_422_BadPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/trips?page=two", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockTripServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- GET /trips/{id} -------------------------------------------------------

func TestGetTrip_200(t *testing.T) {
	fixture := tripFixture()
	svc := &mockTripServicer{
		get: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			assert.Equal(t, fixture.ID, id)
			return fixture, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/trips/"+fixture.ID.String(), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp handler.TripResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, fixture.ID, resp.ID)
	assert.Equal(t, "summer-trip", resp.Slug)
}

func TestGetTrip_404(t *testing.T) {
	svc := &mockTripServicer{
		get: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/trips/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestGetTrip_404_MalformedID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/trips/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockTripServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- PATCH /trips/{id} -----------------------------------------------------

func TestUpdateTrip_200(t *testing.T) {
	fixture := tripFixture()
	fixture.Title = "Updated Title"
	var got domain.TripPatch
	svc := &mockTripServicer{
		update: func(_ context.Context, _ uuid.UUID, p domain.TripPatch) (domain.Trip, error) {
			got = p
			return fixture, nil
		},
	}

	body := jsonBody(t, map[string]any{
		"title":    "Updated Title",
		"end_date": "2024-11-18",
		"meta":     map[string]any{"budget": 1200},
	})

	req := httptest.NewRequest(http.MethodPatch, "/trips/"+fixture.ID.String(), body)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Updated Title", *got.Title)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, time.Date(2024, 11, 18, 0, 0, 0, 0, time.UTC), *got.EndDate)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.DestinationCity)
	require.NotNil(t, got.Meta)
	assert.Equal(t, float64(1200), (*got.Meta)["budget"])

	var resp handler.TripResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Updated Title", resp.Title)
}

func TestUpdateTrip_404(t *testing.T) {
	svc := &mockTripServicer{
		update: func(_ context.Context, _ uuid.UUID, _ domain.TripPatch) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/trips/"+uuid.New().String(), jsonBody(t, map[string]any{"title": "X"}))
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- DELETE /trips/{id} ----------------------------------------------------

func TestDeleteTrip_204(t *testing.T) {
	svc := &mockTripServicer{
		delete: func(_ context.Context, _ uuid.UUID) (bool, error) { return true, nil },
	}

	req := httptest.NewRequest(http.MethodDelete, "/trips/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDeleteTrip_404(t *testing.T) {
	svc := &mockTripServicer{
		delete: func(_ context.Context, _ uuid.UUID) (bool, error) { return false, nil },
	}

	req := httptest.NewRequest(http.MethodDelete, "/trips/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---- routing ---------------------------------------------------------------

func TestUnknownRoute_404JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stops", nil)
	rec := httptest.NewRecorder()

	newHTTPHandler(&mockTripServicer{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", decodeError(t, rec).Message)
}
