package repomanager

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/lists"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/loginhistory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps every table in process memory. The DBTX
// handles passed to it are ignored, so writes made inside a transaction that
// later rolls back are not undone. It backs service and HTTP tests.
type InMemoryRepositoryManager struct {
	store *memStore
}

// NewInMemoryRepositoryManager returns an empty in-memory manager.
func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: &memStore{
		users: map[int64]models.User{},
		lists: map[int64]models.TodoList{},
		tasks: map[int64]models.TodoTask{},
	}}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return memUsers{m.store} }

func (m *InMemoryRepositoryManager) LoginHistory(dbx.DBTX) loginhistory.Repository {
	return memHistory{m.store}
}

func (m *InMemoryRepositoryManager) Lists(dbx.DBTX) lists.Repository { return memLists{m.store} }

func (m *InMemoryRepositoryManager) Tasks(dbx.DBTX) tasks.Repository { return memTasks{m.store} }

// History returns a copy of the login history recorded so far.
func (m *InMemoryRepositoryManager) History() []models.LoginHistoryEntry {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return append([]models.LoginHistoryEntry(nil), m.store.history...)
}

type memStore struct {
	mu      sync.Mutex
	seq     int64
	users   map[int64]models.User
	history []models.LoginHistoryEntry
	lists   map[int64]models.TodoList
	tasks   map[int64]models.TodoTask
}

func (s *memStore) nextID() int64 {
	s.seq++
	return s.seq
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.UserName == user.UserName {
			return nil, common.NewConflictError("username", user.UserName)
		}
		if u.Email == user.Email {
			return nil, common.NewConflictError("email", user.Email)
		}
	}

	now := time.Now()
	user.ID = r.s.nextID()
	user.LoginSession = ""
	user.CreatedAt, user.ModifiedAt = now, now
	r.s.users[user.ID] = *user
	return user, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r memUsers) GetByUsername(_ context.Context, userName string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.UserName == userName })
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r memUsers) GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error) {
	if u, err := r.GetByUsername(ctx, login); err == nil {
		return u, nil
	}
	return r.GetByEmail(ctx, login)
}

func (r memUsers) SetSession(_ context.Context, id int64, marker string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.LoginSession = marker
	u.ModifiedAt = time.Now()
	r.s.users[id] = u
	return nil
}

func (r memUsers) FindBySession(_ context.Context, id int64, marker string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id && u.LoginSession == marker })
}

func (r memUsers) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memHistory struct{ s *memStore }

func (r memHistory) Append(_ context.Context, userID int64, at time.Time) (*models.LoginHistoryEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e := models.LoginHistoryEntry{ID: r.s.nextID(), UserID: userID, LoginTimestamp: at}
	r.s.history = append(r.s.history, e)
	return &e, nil
}

type memLists struct{ s *memStore }

func (r memLists) Create(_ context.Context, list *models.TodoList) (*models.TodoList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	list.ID = r.s.nextID()
	list.CreatedAt, list.ModifiedAt = now, now
	r.s.lists[list.ID] = *list
	return list, nil
}

func (r memLists) List(_ context.Context, ownerID int64, page models.Page) ([]models.TodoList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]models.TodoList, 0)
	for _, l := range r.s.lists {
		if l.UserID == ownerID {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return window(result, page), nil
}

func (r memLists) Get(_ context.Context, ownerID, id int64) (*models.TodoList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.lists[id]
	if !ok || l.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return &l, nil
}

func (r memLists) Update(_ context.Context, ownerID, id int64, patch models.TodoListPatch) (*models.TodoList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.lists[id]
	if !ok || l.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Description != nil {
		l.Description = patch.Description
	}
	if patch.SharedWith != nil {
		l.SharedWith = patch.SharedWith
	}
	if patch.ParentListID != nil {
		l.ParentListID = patch.ParentListID
	}
	l.ModifiedAt = time.Now()
	r.s.lists[id] = l
	return &l, nil
}

func (r memLists) Delete(_ context.Context, ownerID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.lists[id]
	if !ok || l.UserID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.s.lists, id)
	for tid, t := range r.s.tasks {
		if t.TodoListID == id {
			delete(r.s.tasks, tid)
		}
	}
	return nil
}

type memTasks struct{ s *memStore }

func (r memTasks) Create(_ context.Context, task *models.TodoTask) (*models.TodoTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	task.ID = r.s.nextID()
	task.CreatedAt, task.ModifiedAt = now, now
	r.s.tasks[task.ID] = *task
	return task, nil
}

func (r memTasks) List(_ context.Context, ownerID int64, filter tasks.Filter, page models.Page) ([]models.TodoTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]models.TodoTask, 0)
	for _, t := range r.s.tasks {
		if t.UserID != ownerID {
			continue
		}
		if filter.TodoListID != nil && t.TodoListID != *filter.TodoListID {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return window(result, page), nil
}

func (r memTasks) Get(_ context.Context, ownerID, id int64) (*models.TodoTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memTasks) Update(_ context.Context, ownerID, id int64, patch models.TodoTaskPatch) (*models.TodoTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	if patch.Summary != nil {
		t.Summary = *patch.Summary
	}
	if patch.Description != nil {
		t.Description = patch.Description
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.TodoListID != nil {
		t.TodoListID = *patch.TodoListID
	}
	if patch.ParentTaskID != nil {
		t.ParentTaskID = patch.ParentTaskID
	}
	if patch.Done != nil {
		t.Done = *patch.Done
	}
	t.ModifiedAt = time.Now()
	r.s.tasks[id] = t
	return &t, nil
}

func (r memTasks) Delete(_ context.Context, ownerID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.UserID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func window[T any](rows []T, page models.Page) []T {
	from := page.Offset()
	if from >= len(rows) {
		return rows[:0]
	}
	to := len(rows)
	if page.PerPage > 0 && from+page.PerPage < to {
		to = from + page.PerPage
	}
	return rows[from:to]
}

var _ RepositoryManager = (*InMemoryRepositoryManager)(nil)
