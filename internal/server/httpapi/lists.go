package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

type listRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	SharedWith   *string `json:"shared_with"`
	ParentListID *int64  `json:"parent_list_id"`
}

type listResponse struct {
	ID           int64     `json:"id"`
	ParentListID *int64    `json:"parent_list_id"`
	SharedWith   *string   `json:"shared_with"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

func toListResponse(l *models.TodoList) listResponse {
	return listResponse{
		ID:           l.ID,
		ParentListID: l.ParentListID,
		SharedWith:   l.SharedWith,
		Name:         l.Name,
		Description:  l.Description,
		CreatedAt:    l.CreatedAt,
		ModifiedAt:   l.ModifiedAt,
	}
}

func (h *Handlers) CreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.Name == nil {
		writeError(w, r, h.log, common.ErrorBadRequest)
		return
	}

	l, err := h.lists.Create(r.Context(), services.NewList{
		Name:         *req.Name,
		Description:  req.Description,
		SharedWith:   req.SharedWith,
		ParentListID: req.ParentListID,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, common.MessageListCreated, toListResponse(l))
}

func (h *Handlers) ListLists(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	items, err := h.lists.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	out := make([]listResponse, 0, len(items))
	for i := range items {
		out = append(out, toListResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, common.MessageOK, out)
}

func (h *Handlers) GetList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	l, err := h.lists.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageOK, toListResponse(l))
}

func (h *Handlers) UpdateList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	l, err := h.lists.Update(r.Context(), id, models.TodoListPatch{
		Name:         req.Name,
		Description:  req.Description,
		SharedWith:   req.SharedWith,
		ParentListID: req.ParentListID,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageListUpdated, toListResponse(l))
}

func (h *Handlers) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.lists.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, common.MessageListDeleted, "")
}
