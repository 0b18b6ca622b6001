package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
)

// NewList is the client-controlled part of a list. The owner is never taken
// from here.
type NewList struct {
	Name         string
	Description  *string
	SharedWith   *string
	ParentListID *int64
}

// ListService manages todo lists of the calling user.
type ListService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewListService(db *sql.DB, m repomanager.RepositoryManager) *ListService {
	return &ListService{db: db, repomanager: m}
}

func (s *ListService) Create(ctx context.Context, in NewList) (*models.TodoList, error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkText(in.Name); err != nil {
		return nil, err
	}

	var created *models.TodoList
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Lists(tx)
		if in.ParentListID != nil {
			if _, err := repo.Get(ctx, owner, *in.ParentListID); err != nil {
				return storeErr("get parent list", err)
			}
		}
		l, err := repo.Create(ctx, &models.TodoList{
			UserID:       owner,
			ParentListID: in.ParentListID,
			SharedWith:   in.SharedWith,
			Name:         in.Name,
			Description:  in.Description,
		})
		if err != nil {
			return storeErr("create list", err)
		}
		created = l
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}
	return created, nil
}

func (s *ListService) List(ctx context.Context, page models.Page) ([]models.TodoList, error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkPage(page); err != nil {
		return nil, err
	}
	result, err := s.repomanager.Lists(s.db).List(ctx, owner, page)
	if err != nil {
		return nil, storeErr("list lists", err)
	}
	return result, nil
}

func (s *ListService) Get(ctx context.Context, id int64) (*models.TodoList, error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	l, err := s.repomanager.Lists(s.db).Get(ctx, owner, id)
	if err != nil {
		return nil, storeErr("get list", err)
	}
	return l, nil
}

// Update applies patch. A new parent must belong to the caller and must not
// be the list itself or one of its descendants.
func (s *ListService) Update(ctx context.Context, id int64, patch models.TodoListPatch) (*models.TodoList, error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if err := checkText(*patch.Name); err != nil {
			return nil, err
		}
	}
	if patch.ParentListID != nil && *patch.ParentListID == id {
		return nil, common.ErrorBadRequest
	}

	var updated *models.TodoList
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Lists(tx)
		if patch.ParentListID != nil {
			if err := s.checkNoCycle(ctx, tx, owner, id, *patch.ParentListID); err != nil {
				return err
			}
		}
		l, err := repo.Update(ctx, owner, id, patch)
		if err != nil {
			return storeErr("update list", err)
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}
	return updated, nil
}

func (s *ListService) Delete(ctx context.Context, id int64) error {
	owner, err := ownerID(ctx)
	if err != nil {
		return err
	}
	if err := s.repomanager.Lists(s.db).Delete(ctx, owner, id); err != nil {
		return storeErr("delete list", err)
	}
	return nil
}

// checkNoCycle follows the parent chain up from parentID and fails with
// ErrorBadRequest if it reaches id. A parent the caller does not own is
// ErrorNotFound.
func (s *ListService) checkNoCycle(ctx context.Context, tx dbx.DBTX, owner, id, parentID int64) error {
	repo := s.repomanager.Lists(tx)
	seen := map[int64]bool{}
	for cur := &parentID; cur != nil; {
		if *cur == id {
			return fmt.Errorf("%w: list %d would become its own ancestor", common.ErrorBadRequest, id)
		}
		if seen[*cur] {
			return nil
		}
		seen[*cur] = true
		l, err := repo.Get(ctx, owner, *cur)
		if err != nil {
			return storeErr("get parent list", err)
		}
		cur = l.ParentListID
	}
	return nil
}
