package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password, login_session, created_at, modified_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password, login_session)
         VALUES ($1, $2, $3, '')
		 RETURNING id, created_at, modified_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt, &user.ModifiedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, common.NewConflictError("email", user.Email)
			}
			return nil, common.NewConflictError("username", user.UserName)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.LoginSession = ""
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, userName string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.getOne(ctx, query, userName)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// GetByUsernameOrEmail prefers an exact username match over an email match.
func (r *PostgresRepository) GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE username = $1 OR email = $1
		 ORDER BY (username = $1) DESC
		 LIMIT 1
		 `
	return r.getOne(ctx, query, login)
}

func (r *PostgresRepository) SetSession(ctx context.Context, id int64, marker string) error {
	query :=
		`UPDATE users SET login_session = $2, modified_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, marker)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) FindBySession(ctx context.Context, id int64, marker string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND login_session = $2`
	return r.getOne(ctx, query, id, marker)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.UserName, &user.Email, &user.PasswordHash,
		&user.LoginSession, &user.CreatedAt, &user.ModifiedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
