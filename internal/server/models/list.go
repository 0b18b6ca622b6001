package models

import "time"

// TodoList groups tasks. Lists may be nested through ParentListID.
type TodoList struct {
	ID           int64
	UserID       int64
	ParentListID *int64
	SharedWith   *string
	Name         string
	Description  *string
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// TodoListPatch carries the fields of a partial list update. Nil means unchanged.
type TodoListPatch struct {
	Name         *string
	Description  *string
	SharedWith   *string
	ParentListID *int64
}
