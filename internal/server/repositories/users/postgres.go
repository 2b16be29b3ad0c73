package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/dbx"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

const userColumns = `id, name, email, password_hash, role, reset_code, reset_expires_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		role      string
		code      sql.NullString
		expiresAt sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &code, &expiresAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if code.Valid && expiresAt.Valid {
		u.Reset = &models.PasswordReset{Code: code.String, ExpiresAt: expiresAt.Time}
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, string(user.Role)).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorInvalidID
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.findOne(ctx, query, email)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	query :=
		`UPDATE users SET role = $1, updated_at = now()
		 WHERE email = $2
		 RETURNING ` + userColumns
	return r.findOne(ctx, query, string(role), email)
}

func (r *PostgresRepository) SetPasswordReset(ctx context.Context, email string, reset models.PasswordReset) error {
	query :=
		`UPDATE users SET reset_code = $1, reset_expires_at = $2, updated_at = now()
		 WHERE email = $3`

	res, err := r.db.ExecContext(ctx, query, reset.Code, reset.ExpiresAt, email)
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

func (r *PostgresRepository) ConsumePasswordReset(ctx context.Context, email, code string, now time.Time, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $1, reset_code = NULL, reset_expires_at = NULL, updated_at = $2
		 WHERE email = $3 AND reset_code = $4 AND reset_expires_at > $2`

	res, err := r.db.ExecContext(ctx, query, passwordHash, now, email, code)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorInvalidOTP
	}
	return nil
}
