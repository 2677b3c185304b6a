package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/httpclient"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the message because the handler is the layer that knows
// what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

// writeError maps a service error onto a status code and error body.
//   - *domain.ImportError → 400 import_format_error
//   - domain.ErrLocationNotFound → 422 location_not_found
//   - domain.ErrNotFound → 404 not_found
//   - domain.ErrValidation → 422 validation_error
//   - domain.ErrProvider → 502 provider_error
//   - httpclient.ErrUnavailable → 503 upstream_unavailable
//   - *httpclient.StatusError → 502 upstream_error
//
// Anything else is logged and reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		body   ErrorResponse
		ie     *domain.ImportError
		tooBig *http.MaxBytesError
		upErr  *httpclient.StatusError
	)
	switch {
	case errors.As(err, &tooBig):
		status, body = http.StatusRequestEntityTooLarge, errBody("request_too_large", "request body too large")
	case errors.As(err, &ie):
		status, body = http.StatusBadRequest, errBody("import_format_error", ie.Error())
	case errors.Is(err, domain.ErrLocationNotFound):
		status, body = http.StatusUnprocessableEntity, errBody("location_not_found", unwrapMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		status, body = http.StatusNotFound, notFoundBody("trip not found")
	case errors.Is(err, domain.ErrValidation):
		status, body = http.StatusUnprocessableEntity, errBody("validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrProvider):
		status, body = http.StatusBadGateway, errBody("provider_error", unwrapMessage(err))
	case errors.Is(err, httpclient.ErrUnavailable):
		status, body = http.StatusServiceUnavailable, errBody("upstream_unavailable", "an upstream service is temporarily unavailable")
	case errors.As(err, &upErr):
		slog.WarnContext(r.Context(), "upstream error", "path", r.URL.Path, "status", upErr.Status)
		status, body = http.StatusBadGateway, errBody("upstream_error", "an upstream service rejected the request")
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		status, body = http.StatusInternalServerError, errBody("internal_error", "internal server error")
	}
	writeJSON(w, status, body)
}

func errBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Create: validation error: title is required" → "title is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []string{domain.ErrValidation.Error() + ": ", domain.ErrProvider.Error() + ": "} {
		if i := strings.LastIndex(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
	}
	return msg
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON body into dst and runs the struct's validate tags.
// The returned error is already an ErrValidation with a client-facing message.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: request body is required", domain.ErrValidation)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrValidation, err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, formatValidationError(err))
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// formatValidationError formats validation errors into readable messages.
func formatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return strings.Join(msgs, "; ")
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
