package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/pkordes/trip-planner/internal/service"
)

var contentTypes = map[string]string{
	service.FormatJSON: "application/json",
	service.FormatCSV:  "text/csv; charset=utf-8",
}

// ExportTrip handles GET /trips/{id}/export.
// Use ?format=csv to receive the single-row CSV document; default is JSON.
func (s *Server) ExportTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(w, r)
	if !ok {
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = service.FormatJSON
	}

	trip, err := s.trips.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := service.Encode(trip, format)
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := trip.Slug
	if name == "" {
		name = id.String()
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"."+format))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write(doc)
}

// ImportTrip handles POST /trips/import.
// The body is a document produced by ExportTrip. The format comes from
// ?format= or, failing that, from a text/csv Content-Type.
func (s *Server) ImportTrip(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("request body is required"))
		return
	}

	created, err := s.trips.Import(r.Context(), data, importFormat(r), service.CreateOptions{Persist: true})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/trips/"+created.ID.String())
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

func importFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return strings.ToLower(f)
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mt == "text/csv" {
		return service.FormatCSV
	}
	return service.FormatJSON
}
