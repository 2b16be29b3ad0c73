package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return db, mock
}

func stubOpen(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			return nil, errors.New("unexpected driver " + driver)
		}
		return db, err
	}
	t.Cleanup(func() { sqlOpen = orig })
}

func TestNewPostgresRepositoryManager(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectPing()
	stubOpen(t, db, nil)

	m, err := NewPostgresRepositoryManager(context.Background(), "postgres://x")
	require.NoError(t, err)
	assert.NotNil(t, m.Users())
	assert.NotNil(t, m.Issues())

	mock.ExpectClose()
	require.NoError(t, m.Close(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresRepositoryManager_PingError(t *testing.T) {
	db, mock := newDB(t)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()
	stubOpen(t, db, nil)

	_, err := NewPostgresRepositoryManager(context.Background(), "postgres://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresRepositoryManager_OpenError(t *testing.T) {
	stubOpen(t, nil, errors.New("bad dsn"))

	_, err := NewPostgresRepositoryManager(context.Background(), "::")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db open error")
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if got != db {
			return errors.New("unexpected db")
		}
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := newPostgresManager(db)
	require.NoError(t, m.RunMigrations(context.Background()))
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := newPostgresManager(db)
	err := m.RunMigrations(context.Background())
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}
