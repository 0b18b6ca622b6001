package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userCols = []string{"id", "username", "email", "password", "login_session", "created_at", "modified_at"}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password,\s*login_session\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*''\)\s*RETURNING\s+id,\s*created_at,\s*modified_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "alice@x.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "modified_at"}).AddRow(int64(42), now, now))

	got, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.UserName != "alice" || got.LoginSession != "" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreate_UniqueViolationNamesField(t *testing.T) {
	tests := []struct {
		constraint string
		wantMsg    string
	}{
		{"users_username_key", "User 'alice' is already registered"},
		{"users_email_key", "Email 'alice@x.com' is already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(insertQ).
				WithArgs("alice", "alice@x.com", "hash").
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "hash"})
			if !errors.Is(err, common.ErrorConflict) {
				t.Fatalf("want ErrorConflict, got %v", err)
			}
			if err.Error() != tt.wantMsg {
				t.Fatalf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice", "alice@x.com", "hash").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "hash"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetters_Found(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		query string
		arg   any
		call  func(r *PostgresRepository) (*models.User, error)
	}{
		{"by id", `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`, int64(7),
			func(r *PostgresRepository) (*models.User, error) { return r.GetByID(context.Background(), 7) }},
		{"by username", `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`, "alice",
			func(r *PostgresRepository) (*models.User, error) { return r.GetByUsername(context.Background(), "alice") }},
		{"by email", `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`, "alice@x.com",
			func(r *PostgresRepository) (*models.User, error) { return r.GetByEmail(context.Background(), "alice@x.com") }},
		{"by username or email", `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s+OR\s+email\s*=\s*\$1.*LIMIT\s+1\s*$`, "alice",
			func(r *PostgresRepository) (*models.User, error) {
				return r.GetByUsernameOrEmail(context.Background(), "alice")
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(tt.query).
				WithArgs(tt.arg).
				WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "alice", "alice@x.com", "hash", "m-1", now, now))

			got, err := tt.call(repo)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != 7 || got.UserName != "alice" || got.Email != "alice@x.com" || got.LoginSession != "m-1" {
				t.Fatalf("unexpected user: %+v", got)
			}
		})
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(1)).
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), 1)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSetSession(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+login_session\s*=\s*\$2,\s*modified_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s*$`

	t.Run("updated", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs(int64(7), "m-2").WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.SetSession(context.Background(), 7, "m-2"); err != nil {
			t.Fatalf("SetSession error: %v", err)
		}
	})

	t.Run("clear", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs(int64(7), "").WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.SetSession(context.Background(), 7, ""); err != nil {
			t.Fatalf("SetSession error: %v", err)
		}
	})

	t.Run("no such user", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs(int64(9), "m").WillReturnResult(sqlmock.NewResult(0, 0))

		if err := repo.SetSession(context.Background(), 9, "m"); !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want ErrorNotFound, got %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs(int64(7), "m").WillReturnError(errors.New("boom"))

		err := repo.SetSession(context.Background(), 7, "m")
		if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
			t.Fatalf("expected wrapped db error, got %v", err)
		}
	})
}

func TestFindBySession(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+AND\s+login_session\s*=\s*\$2\s*$`
	now := time.Now()

	t.Run("current", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs(int64(7), "m-1").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "alice", "alice@x.com", "hash", "m-1", now, now))

		u, err := repo.FindBySession(context.Background(), 7, "m-1")
		if err != nil {
			t.Fatalf("FindBySession error: %v", err)
		}
		if u.ID != 7 {
			t.Fatalf("unexpected user: %+v", u)
		}
	})

	t.Run("stale marker", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs(int64(7), "old").WillReturnError(sql.ErrNoRows)

		if _, err := repo.FindBySession(context.Background(), 7, "old"); !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want ErrorNotFound, got %v", err)
		}
	})
}
