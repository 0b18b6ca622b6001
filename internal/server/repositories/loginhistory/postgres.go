// Package loginhistory provides a PostgreSQL-backed audit trail of
// successful logins and signups.
package loginhistory

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// PostgresRepository appends history rows over dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append records a login for userID at the given instant.
func (r *PostgresRepository) Append(ctx context.Context, userID int64, at time.Time) (*models.LoginHistoryEntry, error) {
	query := `
		INSERT INTO login_history (user_id, login_timestamp)
		VALUES ($1, $2)
		RETURNING id
	`
	entry := &models.LoginHistoryEntry{UserID: userID, LoginTimestamp: at}
	if err := r.db.QueryRowContext(ctx, query, userID, at).Scan(&entry.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}
