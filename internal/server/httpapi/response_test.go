package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing token", common.ErrTokenMissing, http.StatusBadRequest, common.MessageTokenMissing},
		{"bad request", fmt.Errorf("%w: name", common.ErrorBadRequest), http.StatusBadRequest, common.MessageBadRequest},
		{"invalid token", common.ErrInvalidToken, http.StatusUnauthorized, common.MessageInvalidToken},
		{"unauthorized", common.ErrorUnauthorized, http.StatusUnauthorized, common.MessageInvalidToken},
		{"not found", fmt.Errorf("wrapped: %w", common.ErrorNotFound), http.StatusNotFound, common.MessageNotFound},
		{"conflict", common.NewConflictError("username", "alice"), http.StatusConflict, common.NewConflictError("username", "alice").Error()},
		{"internal", fmt.Errorf("%w: secret detail", common.ErrorInternal), http.StatusInternalServerError, common.MessageInternalServerError},
		{"internal beats unauthorized", fmt.Errorf("%w: %w", common.ErrorInternal, common.ErrorUnauthorized), http.StatusInternalServerError, common.MessageInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, common.MessageInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, message := classify(c.err)
			assert.Equal(t, c.status, status)
			assert.Equal(t, c.message, message)
		})
	}
}

func TestWriteError_HidesCause(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/lists", nil)

	writeError(rr, req, logging.Nop{}, fmt.Errorf("%w: pq: password authentication failed", common.ErrorInternal))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotContains(t, rr.Body.String(), "password authentication")
	env := decodeEnvelope(t, rr)
	assert.Equal(t, common.MessageInternalServerError, env.Message)
	assert.Equal(t, "", env.Data)
}
