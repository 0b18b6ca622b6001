package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/cryptox"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/identity"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/loginhistory"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// newTxDB returns a private sqlite database. The in-memory repositories
// ignore it; it only gives dbx.WithTx a real transaction to run.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := dbx.Open(context.Background(), "sqlite", "file:"+name+"?mode=memory&cache=shared", dbx.PoolOptions{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixture struct {
	db    *sql.DB
	repos *repomanager.InMemoryRepositoryManager
	users *UserService
	lists *ListService
	tasks *TaskService
	codec *auth.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTxDB(t)
	repos := repomanager.NewInMemoryRepositoryManager()
	return newFixtureWith(t, db, repos, repos)
}

func newFixtureWith(t *testing.T, db *sql.DB, repos *repomanager.InMemoryRepositoryManager, rm repomanager.RepositoryManager) *fixture {
	t.Helper()
	codec := auth.NewCodec("test-secret")
	sessions := NewSessionAuthority(db, rm)
	users, err := NewUserService(db, rm, sessions, cryptox.NewBcryptHasher(4), codec, time.Hour)
	require.NoError(t, err)
	return &fixture{
		db:    db,
		repos: repos,
		users: users,
		lists: NewListService(db, rm),
		tasks: NewTaskService(db, rm),
		codec: codec,
	}
}

// as signs up name and returns a context carrying the resolved identity.
func (f *fixture) as(t *testing.T, name string) (context.Context, string) {
	t.Helper()
	tok, err := f.users.Signup(context.Background(), name, name+"@x.com", "pw-"+name)
	require.NoError(t, err)
	id, err := f.users.Authenticate(context.Background(), tok.Token)
	require.NoError(t, err)
	return identity.WithIdentity(context.Background(), id), tok.Token
}

// brokenManager overrides selected repositories with failing ones.
type brokenManager struct {
	*repomanager.InMemoryRepositoryManager
	usersErr   error
	historyErr error
}

func (m *brokenManager) Users(db dbx.DBTX) users.Repository {
	if m.usersErr != nil {
		return failingUsers{m.InMemoryRepositoryManager.Users(db), m.usersErr}
	}
	return m.InMemoryRepositoryManager.Users(db)
}

func (m *brokenManager) LoginHistory(db dbx.DBTX) loginhistory.Repository {
	if m.historyErr != nil {
		return failingHistory{m.historyErr}
	}
	return m.InMemoryRepositoryManager.LoginHistory(db)
}

type failingUsers struct {
	users.Repository
	err error
}

func (f failingUsers) FindBySession(context.Context, int64, string) (*models.User, error) {
	return nil, f.err
}

func (f failingUsers) GetByUsernameOrEmail(context.Context, string) (*models.User, error) {
	return nil, f.err
}

func (f failingUsers) SetSession(context.Context, int64, string) error {
	return f.err
}

type failingHistory struct{ err error }

func (f failingHistory) Append(context.Context, int64, time.Time) (*models.LoginHistoryEntry, error) {
	return nil, f.err
}

var errStoreDown = errors.New("connection pool exhausted")

type recordingObserver struct {
	events []string
}

func (r *recordingObserver) CredentialEvent(event, outcome string) {
	r.events = append(r.events, event+":"+outcome)
}
