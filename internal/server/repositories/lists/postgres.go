// Package lists provides a PostgreSQL-backed, owner-scoped store for todo lists.
package lists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

const listColumns = `id, user_id, parent_list_id, shared_with, name, description, created_at, modified_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts list for list.UserID, which the caller must have taken from
// the authenticated identity.
func (r *PostgresRepository) Create(ctx context.Context, list *models.TodoList) (*models.TodoList, error) {
	query := `
		INSERT INTO todolists (user_id, parent_list_id, shared_with, name, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, modified_at
	`
	err := r.db.QueryRowContext(ctx, query,
		list.UserID, list.ParentListID, list.SharedWith, list.Name, list.Description).
		Scan(&list.ID, &list.CreatedAt, &list.ModifiedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) List(ctx context.Context, ownerID int64, page models.Page) ([]models.TodoList, error) {
	query := `
		SELECT ` + listColumns + `
		FROM todolists
		WHERE user_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.TodoList, 0)
	for rows.Next() {
		var l models.TodoList
		if err := scanList(rows, &l); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id int64) (*models.TodoList, error) {
	query := `
		SELECT ` + listColumns + `
		FROM todolists
		WHERE id = $1 AND user_id = $2
	`
	return r.getOne(ctx, query, id, ownerID)
}

// Update applies the non-nil fields of patch.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id int64, patch models.TodoListPatch) (*models.TodoList, error) {
	query := `
		UPDATE todolists SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			shared_with = COALESCE($5, shared_with),
			parent_list_id = COALESCE($6, parent_list_id),
			modified_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + listColumns

	return r.getOne(ctx, query, id, ownerID, patch.Name, patch.Description, patch.SharedWith, patch.ParentListID)
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query := `DELETE FROM todolists WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.TodoList, error) {
	l := &models.TodoList{}
	if err := scanList(r.db.QueryRowContext(ctx, query, args...), l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanList(s scanner, l *models.TodoList) error {
	return s.Scan(&l.ID, &l.UserID, &l.ParentListID, &l.SharedWith, &l.Name, &l.Description, &l.CreatedAt, &l.ModifiedAt)
}
