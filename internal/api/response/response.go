package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/edvin/softsso/internal/softaculous"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// StatusFor maps a client or resolver error to the HTTP status returned to
// the billing panel.
func StatusFor(err error) int {
	switch softaculous.KindOf(err) {
	case softaculous.KindValidation:
		return http.StatusBadRequest
	case softaculous.KindNotFound:
		return http.StatusNotFound
	case softaculous.KindBackendRejected:
		return http.StatusUnprocessableEntity
	case softaculous.KindAuthFailed, softaculous.KindUnreachable,
		softaculous.KindTransport, softaculous.KindMalformedResponse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// WriteServiceError writes err with the status from StatusFor. Client errors
// carry their own message; anything else is reported generically.
func WriteServiceError(w http.ResponseWriter, err error) {
	var cerr *softaculous.Error
	if !errors.As(err, &cerr) {
		WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	msg := cerr.Message
	if msg == "" {
		msg = string(cerr.Kind)
	}
	WriteError(w, StatusFor(err), msg)
}
