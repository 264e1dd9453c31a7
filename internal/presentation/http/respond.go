package httppresentation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Zhima-Mochi/minishop-retail/internal/domain/apperr"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = apperr.Validation("request body is required")

// decodeJSON reads a single JSON value. An empty body decodes to the zero value
// only when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return errEmptyBody
		}
		return apperr.Validation("malformed json: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type failure struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// writeReason answers {ok:false, reason}, the shape used by cart, pricing and inventory.
func writeReason(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, failure{Reason: reason})
}

// writeErrorCode answers {ok:false, error}, the shape used by payments and auth.
func writeErrorCode(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, failure{Error: code})
}

type message struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// writeMessage answers {message}, the shape used by the gateway and catalog.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, message{Message: msg})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError answers {message} with the status of err's kind. Internal
// errors never leak their text.
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, apperr.ErrConfiguration) {
		msg = http.StatusText(status)
	}
	writeMessage(w, status, msg)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
