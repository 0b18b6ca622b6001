package lists

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Repository stores todo lists. Every method except Create takes the owner id
// and filters on it; a row owned by someone else is reported as not found.
type Repository interface {
	Create(ctx context.Context, list *models.TodoList) (*models.TodoList, error)
	List(ctx context.Context, ownerID int64, page models.Page) ([]models.TodoList, error)
	Get(ctx context.Context, ownerID, id int64) (*models.TodoList, error)
	Update(ctx context.Context, ownerID, id int64, patch models.TodoListPatch) (*models.TodoList, error)
	Delete(ctx context.Context, ownerID, id int64) error
}
