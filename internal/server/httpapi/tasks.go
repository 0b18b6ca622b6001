package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

// DateLayout is the wire format of task due dates.
const DateLayout = "2006-01-02"

type taskRequest struct {
	TodoListID   *int64  `json:"todolist_id"`
	Summary      *string `json:"summary"`
	Description  *string `json:"description"`
	ParentTaskID *int64  `json:"parent_task_id"`
	DueDate      *string `json:"due_date"`
	Done         *bool   `json:"done"`
}

type taskResponse struct {
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

func toTaskResponse(t *models.TodoTask) taskResponse {
	resp := taskResponse{
		ID:           t.ID,
		TodoListID:   t.TodoListID,
		Summary:      t.Summary,
		Description:  t.Description,
		ParentTaskID: t.ParentTaskID,
		Done:         t.Done,
		CreatedAt:    t.CreatedAt,
		ModifiedAt:   t.ModifiedAt,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(DateLayout)
		resp.DueDate = &d
	}
	return resp
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, *raw)
	if err != nil {
		return nil, fmt.Errorf("%w: due_date: %v", common.ErrorBadRequest, err)
	}
	return &d, nil
}

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.TodoListID == nil || req.Summary == nil {
		writeError(w, r, h.log, common.ErrorBadRequest)
		return
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	in := services.NewTask{
		TodoListID:   *req.TodoListID,
		Summary:      *req.Summary,
		Description:  req.Description,
		ParentTaskID: req.ParentTaskID,
		DueDate:      due,
	}
	if req.Done != nil {
		in.Done = *req.Done
	}

	t, err := h.tasks.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, common.MessageTaskCreated, toTaskResponse(t))
}

func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var listID *int64
	if raw := r.URL.Query().Get("list_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, h.log, fmt.Errorf("%w: list_id", common.ErrorBadRequest))
			return
		}
		listID = &id
	}

	items, err := h.tasks.List(r.Context(), listID, page)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	out := make([]taskResponse, 0, len(items))
	for i := range items {
		out = append(out, toTaskResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, common.MessageOK, out)
}

func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	t, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageOK, toTaskResponse(t))
}

func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	t, err := h.tasks.Update(r.Context(), id, models.TodoTaskPatch{
		Summary:      req.Summary,
		Description:  req.Description,
		DueDate:      due,
		TodoListID:   req.TodoListID,
		ParentTaskID: req.ParentTaskID,
		Done:         req.Done,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageTaskUpdated, toTaskResponse(t))
}

func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageTaskDeleted, "")
}
