package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/identity"
)

// Gate outcomes, also used as metric labels.
const (
	OutcomeBypassed  = "bypassed"
	OutcomeMissing   = "missing"
	OutcomeMalformed = "malformed"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
	OutcomeSuccess   = "success"
)

// Authenticator turns a raw bearer token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (identity.Identity, error)
}

// GateRecorder counts gate decisions.
type GateRecorder interface {
	GateOutcome(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) GateOutcome(string) {}

// GateError is a request the gate refused. Err is one of
// common.ErrTokenMissing, common.ErrInvalidToken, common.ErrorUnauthorized
// or a common.ErrorInternal wrap.
type GateError struct {
	Outcome string
	Err     error
}

func (e *GateError) Error() string { return "auth gate: " + e.Outcome + ": " + e.Err.Error() }
func (e *GateError) Unwrap() error { return e.Err }

// Gate authenticates every request whose path is not on the bypass list.
// Checks run in order: header present, header shape, token decode, session
// currency. A failed check stops the chain.
type Gate struct {
	auth     Authenticator
	bypass   *BypassList
	log      logging.Logger
	recorder GateRecorder
}

// NewGate builds a gate. The bypass list is fixed at construction.
func NewGate(auth Authenticator, bypass *BypassList, log logging.Logger, recorder GateRecorder) *Gate {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Gate{auth: auth, bypass: bypass, log: log, recorder: recorder}
}

// Authenticate resolves the caller of r. It does not consult the bypass list.
func (g *Gate) Authenticate(r *http.Request) (identity.Identity, error) {
	values := r.Header.Values(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return identity.Identity{}, &GateError{Outcome: OutcomeMissing, Err: common.ErrTokenMissing}
	}

	token, ok := parseBearer(values[0])
	if !ok {
		return identity.Identity{}, &GateError{Outcome: OutcomeMalformed, Err: common.ErrInvalidToken}
	}

	id, err := g.auth.Authenticate(r.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrorInternal) {
			return identity.Identity{}, &GateError{Outcome: OutcomeError, Err: err}
		}
		return identity.Identity{}, &GateError{Outcome: OutcomeRejected, Err: common.ErrorUnauthorized}
	}

	return id, nil
}

// Middleware attaches the resolved identity to the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.bypass != nil && g.bypass.Match(r.URL.Path) {
			g.recorder.GateOutcome(OutcomeBypassed)
			next.ServeHTTP(w, r)
			return
		}

		id, err := g.Authenticate(r)
		if err != nil {
			outcome := OutcomeError
			var gateErr *GateError
			if errors.As(err, &gateErr) {
				outcome = gateErr.Outcome
			}
			g.recorder.GateOutcome(outcome)
			if outcome != OutcomeError {
				g.log.Warn(r.Context(), "request not authenticated",
					"outcome", outcome, "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()))
			}
			writeError(w, r, g.log, err)
			return
		}

		g.recorder.GateOutcome(OutcomeSuccess)
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}

// parseBearer accepts "<scheme> <token>" where the scheme is "bearer" in any
// case, followed by one or more spaces. The token is trimmed and must not
// contain whitespace.
func parseBearer(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token := strings.TrimSpace(rest)
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", false
	}
	return token, true
}
