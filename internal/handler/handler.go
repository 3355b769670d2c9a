package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

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

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError writes a business-rule rejection with its title and
// user-facing message intact.
func writeDomainError(w http.ResponseWriter, status int, derr *model.DomainError, logger zerolog.Logger) {
	logger.Warn().Str("code", derr.Code).Int("status", status).Msg("request rejected")
	writeJSON(w, status, model.ErrorResponse{
		Error:   derr.Code,
		Title:   derr.Title,
		Message: derr.Message,
	})
}

// domainStatus picks the HTTP status for a known domain error.
func domainStatus(derr *model.DomainError) int {
	switch derr.Code {
	case model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidEventType:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

// asDomainError unwraps err into a DomainError, if it is one.
func asDomainError(err error) (*model.DomainError, bool) {
	var derr *model.DomainError
	if errors.As(err, &derr) {
		return derr, true
	}
	return nil, false
}
