package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/identity"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// UserService is the credential side the handlers need.
type UserService interface {
	Authenticator
	Signup(ctx context.Context, username, email, password string) (*services.SessionToken, error)
	Login(ctx context.Context, login, password string) (*services.SessionToken, error)
	Logout(ctx context.Context, userID int64) error
	Me(ctx context.Context) (identity.Identity, error)
}

type ListService interface {
	Create(ctx context.Context, in services.NewList) (*models.TodoList, error)
	List(ctx context.Context, page models.Page) ([]models.TodoList, error)
	Get(ctx context.Context, id int64) (*models.TodoList, error)
	Update(ctx context.Context, id int64, patch models.TodoListPatch) (*models.TodoList, error)
	Delete(ctx context.Context, id int64) error
}

type TaskService interface {
	Create(ctx context.Context, in services.NewTask) (*models.TodoTask, error)
	List(ctx context.Context, listID *int64, page models.Page) ([]models.TodoTask, error)
	Get(ctx context.Context, id int64) (*models.TodoTask, error)
	Update(ctx context.Context, id int64, patch models.TodoTaskPatch) (*models.TodoTask, error)
	Delete(ctx context.Context, id int64) error
}

// Handlers groups the route handlers.
type Handlers struct {
	users UserService
	lists ListService
	tasks TaskService
	log   logging.Logger
}

func NewHandlers(users UserService, lists ListService, tasks TaskService, log logging.Logger) *Handlers {
	return &Handlers{users: users, lists: lists, tasks: tasks, log: log}
}

func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, common.MessageOK, "pong")
}

// decodeJSON reads a bounded JSON body into dst. Unknown fields, including
// any client supplied owner id, are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorBadRequest
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", common.ErrorBadRequest, name)
	}
	return v, nil
}

func queryPage(r *http.Request) (models.Page, error) {
	num, err := queryInt(r, "page")
	if err != nil {
		return models.Page{}, err
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil {
		return models.Page{}, err
	}
	return services.ParsePage(num, perPage)
}
