package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

// Filter narrows a task listing. A nil TodoListID lists tasks of every list.
type Filter struct {
	TodoListID *int64
}

// Repository stores todo tasks, scoped by owner like lists.Repository.
type Repository interface {
	Create(ctx context.Context, task *models.TodoTask) (*models.TodoTask, error)
	List(ctx context.Context, ownerID int64, filter Filter, page models.Page) ([]models.TodoTask, error)
	Get(ctx context.Context, ownerID, id int64) (*models.TodoTask, error)
	Update(ctx context.Context, ownerID, id int64, patch models.TodoTaskPatch) (*models.TodoTask, error)
	Delete(ctx context.Context, ownerID, id int64) error
}
