package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"star-burger/internal/middleware"
	"star-burger/internal/model"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	logger.Error().
		Str("error", message).
		Str("code", code).
		Int("status", status).
		Str("request_id", middleware.RequestIDFrom(r.Context())).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: middleware.RequestIDFrom(r.Context()),
	})
}

// writeServiceError maps service errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		logger.Info().Str("error", validationErr.Error()).Msg("validation failed")
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:         model.ErrCodeValidation,
			Message:       "Request validation failed",
			Fields:        validationErr.Fields,
			CorrelationID: middleware.RequestIDFrom(r.Context()),
		})
		return
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, r, domainStatus(domainErr), domainErr.Code, domainErr.Message, logger)
		return
	}

	logger.Error().Err(err).Str("path", r.URL.Path).Msg("unexpected service error")
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

func domainStatus(err *model.DomainError) int {
	switch err.Code {
	case model.ErrCodeProductNotFound, model.ErrCodeRestaurantNotFound, model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTransition, model.ErrCodeAlreadyAssigned, model.ErrCodeRestaurantCannotCook:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst. Type mismatches become field
// errors so clients see which attribute was wrong.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			fields := model.NewValidationError()
			fields.Add(typeErr.Field, typeMessage(typeErr))
			return fields
		}
		return err
	}
	return nil
}

// writeDecodeError reports a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		writeServiceError(w, r, err, logger)
		return
	}
	writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
}

func typeMessage(err *json.UnmarshalTypeError) string {
	switch err.Type.Kind() {
	case reflect.Slice, reflect.Array:
		return "Expected a list of items but got \"" + err.Value + "\"."
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "A valid number is required."
	default:
		return "Not a valid " + err.Type.Kind().String() + "."
	}
}

// pathInt64 reads a numeric path variable.
func pathInt64(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
