package loginhistory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository is an append-only writer; nothing reads the history back.
type Repository interface {
	Append(ctx context.Context, userID int64, at time.Time) (*models.LoginHistoryEntry, error)
}
