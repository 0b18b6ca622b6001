package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
)

// NewTask is the client-controlled part of a task.
type NewTask struct {
	TodoListID   int64
	Summary      string
	Description  *string
	ParentTaskID *int64
	DueDate      *time.Time
	Done         bool
}

// TaskService manages todo tasks of the calling user. A task may only point
// at lists and parent tasks the caller owns.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m}
}

func (s *TaskService) Create(ctx context.Context, in NewTask) (*models.TodoTask, error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if in.TodoListID <= 0 {
		return nil, common.ErrorBadRequest
	}
	if err := checkText(in.Summary); err != nil {
		return nil, err
	}

	var created *models.TodoTask
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkRefs(ctx, tx, owner, &in.TodoListID, in.ParentTaskID); err != nil {
			return err
		}
		t, err := s.repomanager.Tasks(tx).Create(ctx, &models.TodoTask{
			UserID:       owner,
			TodoListID:   in.TodoListID,
			Summary:      in.Summary,
			Description:  in.Description,
			ParentTaskID: in.ParentTaskID,
			DueDate:      in.DueDate,
			Done:         in.Done,
		})
		if err != nil {
			return storeErr("create task", err)
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}
	return created, nil
}

// List returns the caller's tasks, optionally only those of one list. A list
// the caller does not own is reported as not found.
func (s *TaskService) List(ctx context.Context, listID *int64, page models.Page) ([]models.TodoTask, error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkPage(page); err != nil {
		return nil, err
	}
	if listID != nil {
		if _, err := s.repomanager.Lists(s.db).Get(ctx, owner, *listID); err != nil {
			return nil, storeErr("get list", err)
		}
	}
	result, err := s.repomanager.Tasks(s.db).List(ctx, owner, tasks.Filter{TodoListID: listID}, page)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return result, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (*models.TodoTask, error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	t, err := s.repomanager.Tasks(s.db).Get(ctx, owner, id)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, id int64, patch models.TodoTaskPatch) (*models.TodoTask, error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if patch.Summary != nil {
		if err := checkText(*patch.Summary); err != nil {
			return nil, err
		}
	}
	if patch.ParentTaskID != nil && *patch.ParentTaskID == id {
		return nil, common.ErrorBadRequest
	}

	var updated *models.TodoTask
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkRefs(ctx, tx, owner, patch.TodoListID, patch.ParentTaskID); err != nil {
			return err
		}
		if patch.ParentTaskID != nil {
			if err := s.checkNoCycle(ctx, tx, owner, id, *patch.ParentTaskID); err != nil {
				return err
			}
		}
		t, err := s.repomanager.Tasks(tx).Update(ctx, owner, id, patch)
		if err != nil {
			return storeErr("update task", err)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}
	if err := s.repomanager.Tasks(s.db).Delete(ctx, owner, id); err != nil {
		return storeErr("delete task", err)
	}
	return nil
}

// checkRefs confirms that the referenced list and parent task, when given,
// belong to owner.
func (s *TaskService) checkRefs(ctx context.Context, tx dbx.DBTX, owner int64, listID, parentTaskID *int64) error {
	if listID != nil {
		if _, err := s.repomanager.Lists(tx).Get(ctx, owner, *listID); err != nil {
			return storeErr("get list", err)
		}
	}
	if parentTaskID != nil {
		if _, err := s.repomanager.Tasks(tx).Get(ctx, owner, *parentTaskID); err != nil {
			return storeErr("get parent task", err)
		}
	}
	return nil
}

// checkNoCycle walks parent tasks up from parentID and fails with
// ErrorBadRequest if the chain leads back to id.
func (s *TaskService) checkNoCycle(ctx context.Context, tx dbx.DBTX, owner, id, parentID int64) error {
	repo := s.repomanager.Tasks(tx)
	seen := map[int64]bool{}
	for cur := &parentID; cur != nil; {
		if *cur == id {
			return fmt.Errorf("%w: task %d would become its own ancestor", common.ErrorBadRequest, id)
		}
		if seen[*cur] {
			return nil
		}
		seen[*cur] = true
		t, err := repo.Get(ctx, owner, *cur)
		if err != nil {
			return storeErr("get parent task", err)
		}
		cur = t.ParentTaskID
	}
	return nil
}
