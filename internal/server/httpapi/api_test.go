package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type testAPI struct {
	handler http.Handler
	metrics *metrics.Metrics
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := dbx.Open(context.Background(), "sqlite", "file:"+name+"?mode=memory&cache=shared", dbx.PoolOptions{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := repomanager.NewInMemoryRepositoryManager()
	m := metrics.New()
	sessions := services.NewSessionAuthority(db, repos)
	users, err := services.NewUserService(db, repos, sessions, cryptox.NewBcryptHasher(4), auth.NewCodec("test-secret"), time.Hour)
	require.NoError(t, err)
	users.WithObserver(m)

	h := NewRouter(RouterOptions{
		Users:          users,
		Lists:          services.NewListService(db, repos),
		Tasks:          services.NewTaskService(db, repos),
		Logger:         logging.Nop{},
		Recorder:       m,
		Metrics:        m.Handler(),
		BypassPaths:    config.DefaultBypassPaths,
		AllowedOrigins: []string{"http://localhost:8080"},
		RequestTimeout: 5 * time.Second,
	})
	return &testAPI{handler: h, metrics: m}
}

type rawEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, rawEnvelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	var env rawEnvelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr.Code, env
}

func (a *testAPI) signup(t *testing.T, name string) string {
	t.Helper()
	status, env := a.do(t, http.MethodPost, "/users/auth/register", "", map[string]string{
		"username": name, "email": name + "@x.com", "password": "pw-" + name,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	return tokenOf(t, env)
}

func (a *testAPI) login(t *testing.T, login, password string) (int, rawEnvelope) {
	t.Helper()
	return a.do(t, http.MethodPost, "/users/auth/login", "", map[string]string{
		"username_or_email": login, "password": password,
	})
}

func tokenOf(t *testing.T, env rawEnvelope) string {
	t.Helper()
	var tok tokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	require.Equal(t, common.BearerScheme, tok.TokenType)
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func dataAs[T any](t *testing.T, env rawEnvelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

func emptyData(t *testing.T, env rawEnvelope) {
	t.Helper()
	assert.JSONEq(t, `""`, string(env.Data))
}

func TestAPI_Ping(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, http.MethodGet, "/api/ping", "", nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, common.MessageOK, env.Message)
	assert.Equal(t, "pong", dataAs[string](t, env))
}

func TestAPI_SignupThenMe(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "alice")

	status, env := api.do(t, http.MethodGet, "/users/auth/me", token, nil)

	require.Equal(t, http.StatusOK, status)
	me := dataAs[meResponse](t, env)
	assert.Equal(t, meResponse{Username: "alice", Email: "alice@x.com"}, me)
}

func TestAPI_SignupConflictNamesOnlyTheInput(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "alice")

	status, env := api.do(t, http.MethodPost, "/users/auth/register", "", map[string]string{
		"username": "alice", "email": "other@x.com", "password": "pw",
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Message, "alice")
	emptyData(t, env)

	status, env = api.do(t, http.MethodPost, "/users/auth/register", "", map[string]string{
		"username": "alice2", "email": "alice@x.com", "password": "pw",
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Message, "alice@x.com")
}

func TestAPI_SignupRejectsBadBodies(t *testing.T) {
	api := newTestAPI(t)

	status, env := api.do(t, http.MethodPost, "/users/auth/register", "", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, common.MessageBadRequest, env.Message)

	req := httptest.NewRequest(http.MethodPost, "/users/auth/register", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_LoginFailuresAreUniform(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "alice")

	wrongPw, envA := api.login(t, "alice", "nope")
	unknown, envB := api.login(t, "ghost", "nope")

	assert.Equal(t, http.StatusUnauthorized, wrongPw)
	assert.Equal(t, http.StatusUnauthorized, unknown)
	assert.Equal(t, common.MessageLoginFailed, envA.Message)
	assert.Equal(t, envA, envB)
}

func TestAPI_LoginByEmailVoidsEarlierToken(t *testing.T) {
	api := newTestAPI(t)
	first := api.signup(t, "alice")

	status, env := api.login(t, "alice@x.com", "pw-alice")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, common.MessageLoginSuccess, env.Message)
	second := tokenOf(t, env)

	status, env = api.do(t, http.MethodGet, "/users/auth/me", first, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, common.MessageInvalidToken, env.Message)

	status, _ = api.do(t, http.MethodGet, "/users/auth/me", second, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_LogoutVoidsToken(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "alice")

	status, env := api.do(t, http.MethodPost, "/users/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, common.MessageLogoutSuccess, env.Message)

	status, _ = api.do(t, http.MethodGet, "/lists", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(t, http.MethodPost, "/users/auth/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPI_GateOnProtectedRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "alice")

	status, env := api.do(t, http.MethodGet, "/lists", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, common.MessageTokenMissing, env.Message)

	req := httptest.NewRequest(http.MethodGet, "/lists", nil)
	req.Header.Set(common.AuthorizationHeaderName, "Token abc")
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	tampered := token[:len(token)-2] + flip(token[len(token)-2]) + token[len(token)-1:]
	status, _ = api.do(t, http.MethodGet, "/lists", tampered, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusBadRequest, status, "unknown paths are still gated")

	status, env = api.do(t, http.MethodGet, "/nowhere", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, common.MessageNotFound, env.Message)
}

func flip(c byte) string {
	if c == 'A' {
		return "B"
	}
	return "A"
}

func TestAPI_ListsAreOwnerScoped(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "alice")
	bob := api.signup(t, "bob")

	status, env := api.do(t, http.MethodPost, "/lists", alice, map[string]any{
		"name": "groceries", "user_id": 999,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, common.MessageListCreated, env.Message)
	list := dataAs[listResponse](t, env)
	assert.Equal(t, "groceries", list.Name)

	path := "/lists/" + itoa(list.ID)

	status, env = api.do(t, http.MethodGet, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, common.MessageNotFound, env.Message)
	status, _ = api.do(t, http.MethodPatch, path, bob, map[string]any{"name": "mine"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(t, http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(t, http.MethodPost, "/lists", bob, map[string]any{"name": "child", "parent_list_id": list.ID})
	assert.Equal(t, http.StatusNotFound, status)

	status, env = api.do(t, http.MethodGet, "/lists", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, dataAs[[]listResponse](t, env))

	status, env = api.do(t, http.MethodPatch, path, alice, map[string]any{"description": "weekly"})
	require.Equal(t, http.StatusOK, status)
	updated := dataAs[listResponse](t, env)
	assert.Equal(t, "groceries", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "weekly", *updated.Description)

	status, env = api.do(t, http.MethodDelete, path, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, common.MessageListDeleted, env.Message)
	emptyData(t, env)

	status, _ = api.do(t, http.MethodGet, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_TasksAreOwnerScoped(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "alice")
	bob := api.signup(t, "bob")

	_, env := api.do(t, http.MethodPost, "/lists", alice, map[string]any{"name": "work"})
	work := dataAs[listResponse](t, env)
	_, env = api.do(t, http.MethodPost, "/lists", alice, map[string]any{"name": "home"})
	home := dataAs[listResponse](t, env)
	_, env = api.do(t, http.MethodPost, "/lists", bob, map[string]any{"name": "bobs"})
	bobs := dataAs[listResponse](t, env)

	status, env := api.do(t, http.MethodPost, "/tasks", alice, map[string]any{
		"todolist_id": work.ID, "summary": "report", "due_date": "2026-11-01",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	task := dataAs[taskResponse](t, env)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-11-01", *task.DueDate)
	assert.False(t, task.Done)

	_, _ = api.do(t, http.MethodPost, "/tasks", alice, map[string]any{"todolist_id": home.ID, "summary": "dishes"})

	status, _ = api.do(t, http.MethodPost, "/tasks", bob, map[string]any{"todolist_id": work.ID, "summary": "sneak"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(t, http.MethodPost, "/tasks", bob, map[string]any{
		"todolist_id": bobs.ID, "summary": "child", "parent_task_id": task.ID,
	})
	assert.Equal(t, http.StatusNotFound, status)

	path := "/tasks/" + itoa(task.ID)
	status, _ = api.do(t, http.MethodGet, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = api.do(t, http.MethodPatch, path, alice, map[string]any{"todolist_id": bobs.ID})
	assert.Equal(t, http.StatusNotFound, status)

	status, env = api.do(t, http.MethodGet, "/tasks?list_id="+itoa(work.ID), alice, nil)
	require.Equal(t, http.StatusOK, status)
	filtered := dataAs[[]taskResponse](t, env)
	require.Len(t, filtered, 1)
	assert.Equal(t, "report", filtered[0].Summary)

	status, env = api.do(t, http.MethodGet, "/tasks", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, dataAs[[]taskResponse](t, env), 2)

	status, env = api.do(t, http.MethodPatch, path, alice, map[string]any{"done": true})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, dataAs[taskResponse](t, env).Done)

	status, env = api.do(t, http.MethodDelete, path, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, common.MessageTaskDeleted, env.Message)
}

func TestAPI_TaskValidation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "alice")

	_, env := api.do(t, http.MethodPost, "/lists", alice, map[string]any{"name": "work"})
	work := dataAs[listResponse](t, env)

	status, _ := api.do(t, http.MethodPost, "/tasks", alice, map[string]any{"summary": "no list"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = api.do(t, http.MethodPost, "/tasks", alice, map[string]any{
		"todolist_id": work.ID, "summary": "x", "due_date": "01/11/2026",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = api.do(t, http.MethodGet, "/tasks?list_id=abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = api.do(t, http.MethodGet, "/tasks/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_Pagination(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "alice")

	for i := 0; i < 3; i++ {
		status, _ := api.do(t, http.MethodPost, "/lists", alice, map[string]any{"name": "l" + itoa(int64(i))})
		require.Equal(t, http.StatusCreated, status)
	}

	status, env := api.do(t, http.MethodGet, "/lists?page=2&per_page=2", alice, nil)
	require.Equal(t, http.StatusOK, status)
	page := dataAs[[]listResponse](t, env)
	require.Len(t, page, 1)
	assert.Equal(t, "l2", page[0].Name)

	status, _ = api.do(t, http.MethodGet, "/lists?page=x", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = api.do(t, http.MethodGet, "/lists?page=9223372036854775807&per_page=100", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, common.MessageBadRequest, env.Message)

	status, _ = api.do(t, http.MethodGet, "/tasks?page=9223372036854775807", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_ListParentCycleIsBadRequest(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "alice")

	status, env := api.do(t, http.MethodPost, "/lists", alice, map[string]any{"name": "a"})
	require.Equal(t, http.StatusCreated, status)
	a := dataAs[listResponse](t, env)
	status, env = api.do(t, http.MethodPost, "/lists", alice, map[string]any{"name": "b", "parent_list_id": a.ID})
	require.Equal(t, http.StatusCreated, status)
	b := dataAs[listResponse](t, env)

	status, _ = api.do(t, http.MethodPatch, "/lists/"+itoa(a.ID), alice, map[string]any{"parent_list_id": b.ID})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPost, "/lists", alice, map[string]any{"name": strings.Repeat("n", 256)})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_MetricsExposed(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "alice")
	api.do(t, http.MethodGet, "/lists", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `taskkeeper_auth_gate_outcomes_total{outcome="missing"} 1`)
	assert.Contains(t, body, `taskkeeper_credential_events_total{event="signup",outcome="success"} 1`)
	assert.Contains(t, body, `route="/users/auth/register"`)
}

func TestAPI_CORSPreflightSkipsGate(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/lists", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	api.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:8080", rr.Header().Get("Access-Control-Allow-Origin"))
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
