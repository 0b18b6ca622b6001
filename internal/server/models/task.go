package models

import (
	"math"
	"time"
)

type TodoTask struct {
	ID           int64
	UserID       int64
	TodoListID   int64
	Summary      string
	Description  *string
	ParentTaskID *int64
	DueDate      *time.Time
	Done         bool
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// TodoTaskPatch carries the fields of a partial task update. Nil means unchanged.
type TodoTaskPatch struct {
	Summary      *string
	Description  *string
	DueDate      *time.Time
	TodoListID   *int64
	ParentTaskID *int64
	Done         *bool
}

// Page selects a window of a listing. Page numbers start at 1.
type Page struct {
	Num     int
	PerPage int
}

// Offset returns the number of rows to skip. It saturates at math.MaxInt
// instead of wrapping.
func (p Page) Offset() int {
	if p.Num < 1 || p.PerPage < 1 {
		return 0
	}
	if p.Num-1 > math.MaxInt/p.PerPage {
		return math.MaxInt
	}
	return (p.Num - 1) * p.PerPage
}
