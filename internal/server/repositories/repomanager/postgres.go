package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/issuedesk/internal/server/migrations"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/issues"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager keeps users and issues in PostgreSQL. The schema
// is owned by the embedded goose migrations.
type PostgresRepositoryManager struct {
	db     *sql.DB
	users  *users.PostgresRepository
	issues *issues.PostgresRepository
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return newPostgresManager(db), nil
}

func newPostgresManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		db:     db,
		users:  users.NewPostgresRepository(db),
		issues: issues.NewPostgresRepository(db),
	}
}

func (m *PostgresRepositoryManager) Users() users.Repository   { return m.users }
func (m *PostgresRepositoryManager) Issues() issues.Repository { return m.issues }

// RunMigrations sets up goose with the embedded migrations and applies them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Close(ctx context.Context) error {
	return m.db.Close()
}
