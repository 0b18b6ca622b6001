// Package tasks provides a PostgreSQL-backed, owner-scoped store for todo tasks.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

const taskColumns = `id, user_id, todolist_id, summary, description, parent_task_id, due_date, done, created_at, modified_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.TodoTask) (*models.TodoTask, error) {
	query := `
		INSERT INTO todotasks (user_id, todolist_id, summary, description, parent_task_id, due_date, done)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, modified_at
	`
	err := r.db.QueryRowContext(ctx, query,
		task.UserID, task.TodoListID, task.Summary, task.Description, task.ParentTaskID, task.DueDate, task.Done).
		Scan(&task.ID, &task.CreatedAt, &task.ModifiedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

func (r *PostgresRepository) List(ctx context.Context, ownerID int64, filter Filter, page models.Page) ([]models.TodoTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM todotasks
		WHERE user_id = $1 AND ($2::bigint IS NULL OR todolist_id = $2)
		ORDER BY id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, filter.TodoListID, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.TodoTask, 0)
	for rows.Next() {
		var t models.TodoTask
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, ownerID, id int64) (*models.TodoTask, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM todotasks
		WHERE id = $1 AND user_id = $2
	`
	return r.getOne(ctx, query, id, ownerID)
}

// Update applies the non-nil fields of patch.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id int64, patch models.TodoTaskPatch) (*models.TodoTask, error) {
	query := `
		UPDATE todotasks SET
			summary = COALESCE($3, summary),
			description = COALESCE($4, description),
			due_date = COALESCE($5, due_date),
			todolist_id = COALESCE($6, todolist_id),
			parent_task_id = COALESCE($7, parent_task_id),
			done = COALESCE($8, done),
			modified_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns

	return r.getOne(ctx, query, id, ownerID,
		patch.Summary, patch.Description, patch.DueDate, patch.TodoListID, patch.ParentTaskID, patch.Done)
}

func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query := `DELETE FROM todotasks WHERE id = $1 AND user_id = $2`

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

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.TodoTask, error) {
	t := &models.TodoTask{}
	if err := scanTask(r.db.QueryRowContext(ctx, query, args...), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner, t *models.TodoTask) error {
	return s.Scan(&t.ID, &t.UserID, &t.TodoListID, &t.Summary, &t.Description,
		&t.ParentTaskID, &t.DueDate, &t.Done, &t.CreatedAt, &t.ModifiedAt)
}
