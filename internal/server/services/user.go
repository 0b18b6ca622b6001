package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/identity"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// Credential event names reported to the Observer.
const (
	EventSignup = "signup"
	EventLogin  = "login"
	EventLogout = "logout"
)

// Observer receives credential events. Outcome is "success" or the error
// class that ended the operation.
type Observer interface {
	CredentialEvent(event, outcome string)
}

type nopObserver struct{}

func (nopObserver) CredentialEvent(string, string) {}

// SessionToken is what signup and login hand back to the client.
type SessionToken struct {
	Token     string
	TokenType string
}

// UserService runs signup, login and logout, and resolves presented tokens
// to identities for the authentication gate.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionAuthority
	hasher      cryptox.PasswordHasher
	codec       *auth.Codec
	tokenTTL    time.Duration
	observer    Observer
	now         func() time.Time

	// dummyDigest is verified against when the login name is unknown so that
	// both failure paths spend a bcrypt comparison.
	dummyDigest string
}

// NewUserService wires the credential service. The signing key lives in codec.
// It fails if hasher cannot produce the digest used for unknown login names.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionAuthority,
	hasher cryptox.PasswordHasher, codec *auth.Codec, tokenTTL time.Duration) (*UserService, error) {

	dummy, err := hasher.Hash("taskkeeper-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}

	return &UserService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		hasher:      hasher,
		codec:       codec,
		tokenTTL:    tokenTTL,
		observer:    nopObserver{},
		now:         time.Now,
		dummyDigest: dummy,
	}, nil
}

// WithObserver sets the credential event sink.
func (s *UserService) WithObserver(o Observer) *UserService {
	if o != nil {
		s.observer = o
	}
	return s
}

// Signup creates the account, opens its first session and records the first
// login. All three writes share one transaction: if any fails, none persist.
func (s *UserService) Signup(ctx context.Context, username, email, password string) (tok *SessionToken, err error) {
	defer func() { s.observer.CredentialEvent(EventSignup, outcome(err)) }()

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, common.ErrorBadRequest
	}

	users := s.repomanager.Users(s.db)
	if err := ensureFree(users.GetByUsername(ctx, username)); err != nil {
		return nil, conflictOr(err, "username", username)
	}
	if err := ensureFree(users.GetByEmail(ctx, email)); err != nil {
		return nil, conflictOr(err, "email", email)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{UserName: username, Email: email, PasswordHash: digest})
		if err != nil {
			if errors.Is(err, common.ErrorConflict) {
				return err
			}
			return fmt.Errorf("%w: create user: %v", common.ErrorInternal, err)
		}
		tok, err = s.openSession(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, txErr(err)
	}
	return tok, nil
}

// Login authenticates by username or email. Unknown account and wrong
// password both return common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, login, password string) (tok *SessionToken, err error) {
	defer func() { s.observer.CredentialEvent(EventLogin, outcome(err)) }()

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByUsernameOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyDigest)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tok, err = s.openSession(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, txErr(err)
	}
	return tok, nil
}

// Logout revokes the current session of userID. It is idempotent.
func (s *UserService) Logout(ctx context.Context, userID int64) (err error) {
	defer func() { s.observer.CredentialEvent(EventLogout, outcome(err)) }()
	return s.sessions.Revoke(ctx, userID)
}

// ResolveIdentity maps a decoded subject and marker to the account they name,
// provided the marker is still current.
func (s *UserService) ResolveIdentity(ctx context.Context, marker, subject string) (identity.Identity, error) {
	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || userID <= 0 {
		return identity.Identity{}, common.ErrorUnauthorized
	}

	user, err := s.sessions.Current(ctx, userID, marker)
	if err != nil {
		return identity.Identity{}, err
	}

	return identity.Identity{UserID: user.ID, UserName: user.UserName, Email: user.Email}, nil
}

// Authenticate decodes a bearer token and resolves it. Decode failures and
// stale sessions are both common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	claims, err := s.codec.Decode(token)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	return s.ResolveIdentity(ctx, claims.Session, claims.Subject)
}

// Me returns the identity attached to ctx.
func (s *UserService) Me(ctx context.Context) (identity.Identity, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return identity.Identity{}, common.ErrorUnauthorized
	}
	return id, nil
}

// openSession issues a marker, appends login history and mints the token.
// Any failure aborts the surrounding transaction.
func (s *UserService) openSession(ctx context.Context, tx dbx.DBTX, userID int64) (*SessionToken, error) {
	marker, err := s.sessions.Issue(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repomanager.LoginHistory(tx).Append(ctx, userID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("%w: append login history: %v", common.ErrorInternal, err)
	}

	token, err := s.codec.Encode(strconv.FormatInt(userID, 10), marker, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &SessionToken{Token: token, TokenType: common.BearerScheme}, nil
}

// ensureFree turns a lookup result into nil when nothing was found.
func ensureFree(u *models.User, err error) error {
	switch {
	case err == nil && u != nil:
		return common.ErrorConflict
	case err == nil, errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return err
	}
}

func conflictOr(err error, field, value string) error {
	if errors.Is(err, common.ErrorConflict) {
		return common.NewConflictError(field, value)
	}
	return fmt.Errorf("%w: check %s: %v", common.ErrorInternal, field, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrorConflict):
		return "conflict"
	case errors.Is(err, common.ErrorUnauthorized):
		return "unauthorized"
	case errors.Is(err, common.ErrorBadRequest):
		return "bad_request"
	default:
		return "error"
	}
}
