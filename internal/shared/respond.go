package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate exposes the shared validator instance for request DTOs.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return NewError(KindValidation, fmt.Sprintf("invalid request: %v", err))
	}
	return nil
}

// DecodeJSON parses and validates a JSON request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return NewError(KindValidation, fmt.Sprintf("malformed request body: %v", err))
	}
	return Validate(dst)
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

var kindStatus = map[ErrorKind]int{
	KindValidation:   http.StatusBadRequest,
	KindNotFound:     http.StatusNotFound,
	KindNotDraft:     http.StatusBadRequest,
	KindPeriodLocked: http.StatusConflict,
	KindNotBalanced:  http.StatusUnprocessableEntity,
	KindConflict:     http.StatusConflict,
	KindStorage:      http.StatusInternalServerError,
}

// WriteError maps err onto the error envelope. Storage errors are logged
// and surfaced opaquely unless devMode is set.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, devMode bool) {
	kind := KindOf(err)
	message := err.Error()
	if kind == KindStorage {
		if logger != nil {
			logger.Error("storage failure", slog.Any("error", err))
		}
		message = "operation failed"
		if devMode {
			message = err.Error()
		}
	}
	WriteJSON(w, kindStatus[kind], errorEnvelope{Error: errorBody{Kind: kind, Message: message}})
}

// IsNotFound reports whether err carries the not_found kind.
func IsNotFound(err error) bool {
	var k Kinder
	return errors.As(err, &k) && k.ErrorKind() == KindNotFound
}
