// Package services contains server-side business logic: the session
// authority, the credential service and the owner-scoped list and task
// services.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// SessionAuthority owns the per-user session marker. A token is live only
// while the marker it carries equals the stored one.
//
// Writes are last-writer-wins: two concurrent logins race on the marker and
// the later write decides which token survives.
type SessionAuthority struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	newMarker   func() string
}

// NewSessionAuthority returns an authority issuing random UUID markers.
func NewSessionAuthority(db *sql.DB, m repomanager.RepositoryManager) *SessionAuthority {
	return &SessionAuthority{db: db, repomanager: m, newMarker: cryptox.NewSessionMarker}
}

// Issue stores a fresh marker for userID, voiding every token minted under
// the previous one. tx lets callers include the write in a transaction.
func (a *SessionAuthority) Issue(ctx context.Context, tx dbx.DBTX, userID int64) (string, error) {
	marker := a.newMarker()
	if marker == "" {
		return "", fmt.Errorf("%w: empty session marker", common.ErrorInternal)
	}
	if err := a.repomanager.Users(tx).SetSession(ctx, userID, marker); err != nil {
		return "", fmt.Errorf("%w: set session: %v", common.ErrorInternal, err)
	}
	return marker, nil
}

// Revoke clears the marker. Revoking an already cleared session, or one of
// an account that no longer exists, succeeds.
func (a *SessionAuthority) Revoke(ctx context.Context, userID int64) error {
	err := a.repomanager.Users(a.db).SetSession(ctx, userID, "")
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: clear session: %v", common.ErrorInternal, err)
	}
	return nil
}

// Current returns the user whose stored marker equals marker, in a single
// store round trip. Unknown user and stale marker both yield
// common.ErrorUnauthorized.
func (a *SessionAuthority) Current(ctx context.Context, userID int64, marker string) (*models.User, error) {
	if marker == "" {
		return nil, common.ErrorUnauthorized
	}
	u, err := a.repomanager.Users(a.db).FindBySession(ctx, userID, marker)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: find session: %v", common.ErrorInternal, err)
	}
	return u, nil
}

// IsCurrent reports whether marker is the live session of userID. Store
// failures are returned, not folded into false.
func (a *SessionAuthority) IsCurrent(ctx context.Context, userID int64, marker string) (bool, error) {
	_, err := a.Current(ctx, userID, marker)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrorUnauthorized):
		return false, nil
	default:
		return false, err
	}
}
