package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/courtsidehq/courtside/internal/api/authz"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// envelope is the uniform response shape: data and message on success,
// message and errors on failure.
type envelope struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any, message string) error {
	return writeEnvelope(w, status, envelope{StatusCode: status, Data: data, Message: message})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, status int, message string, errs ...string) error {
	return writeEnvelope(w, status, envelope{StatusCode: status, Message: message, Errors: errs})
}

func writeEnvelope(w http.ResponseWriter, status int, payload envelope) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteHandlerError unwraps the error types the handlers raise and writes
// the matching envelope. Unexpected errors become a generic 500 and are
// logged; the taxonomy errors propagate unchanged.
func WriteHandlerError(w http.ResponseWriter, logger *zerolog.Logger, err error, fallback string) {
	var fieldErr FieldError
	if errors.As(err, &fieldErr) {
		WriteError(w, http.StatusBadRequest, fieldErr.Error())
		return
	}

	var handlerErr HandlerError
	if errors.As(err, &handlerErr) {
		if handlerErr.Status == http.StatusInternalServerError {
			logger.Error().Err(handlerErr.Err).Msg(handlerErr.Message)
		}
		WriteError(w, handlerErr.Status, handlerErr.Message)
		return
	}

	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, authz.ErrForbidden):
		WriteError(w, http.StatusForbidden, "Forbidden")
	default:
		logger.Error().Err(err).Msg(fallback)
		WriteError(w, http.StatusInternalServerError, fallback)
	}
}
