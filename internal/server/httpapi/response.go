// Package httpapi is the server's HTTP surface: the authentication gate,
// middleware, handlers and routes.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
)

// Envelope is the body of every response. Failures always carry an empty
// string in Data.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Message: message, Data: data})
}

// classify maps an error onto a status and one of the fixed messages.
// Conflicts echo the client's own colliding input and nothing else.
func classify(err error) (int, string) {
	var conflict *common.ConflictError
	switch {
	case errors.Is(err, common.ErrTokenMissing):
		return http.StatusBadRequest, common.MessageTokenMissing
	case errors.Is(err, common.ErrorBadRequest):
		return http.StatusBadRequest, common.MessageBadRequest
	case errors.Is(err, common.ErrorInternal):
		return http.StatusInternalServerError, common.MessageInternalServerError
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, common.MessageInvalidToken
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.MessageNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict, conflict.Error()
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, common.MessageBadRequest
	default:
		return http.StatusInternalServerError, common.MessageInternalServerError
	}
}

// writeError logs server-side failures with their cause and writes the
// envelope. The cause never reaches the body.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, message, "")
}
