package api

import "time"

// Token is what register and login hand back.
type Token struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

type Me struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type List struct {
	ID           int64     `json:"id"`
	ParentListID *int64    `json:"parent_list_id"`
	SharedWith   *string   `json:"shared_with"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

type Task struct {
	ID           int64     `json:"id"`
	TodoListID   int64     `json:"todolist_id"`
	Summary      string    `json:"summary"`
	Description  *string   `json:"description"`
	ParentTaskID *int64    `json:"parent_task_id"`
	DueDate      *string   `json:"due_date"`
	Done         bool      `json:"done"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// CreateListRequest is the payload for creating a list.
type CreateListRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	ParentListID *int64  `json:"parent_list_id,omitempty"`
}

// CreateTaskRequest is the payload for creating a task. DueDate uses the
// 2006-01-02 layout.
type CreateTaskRequest struct {
	TodoListID  int64   `json:"todolist_id"`
	Summary     string  `json:"summary"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// UpdateTaskRequest carries a partial task update. Nil fields are left alone.
type UpdateTaskRequest struct {
	Summary     *string `json:"summary,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	TodoListID  *int64  `json:"todolist_id,omitempty"`
	Done        *bool   `json:"done,omitempty"`
}
