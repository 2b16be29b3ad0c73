// Package repomanager opens the configured storage backend and vends the
// repositories that live on it.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/issuedesk/internal/server/config"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/issues"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/users"
)

type RepositoryManager interface {
	// RunMigrations brings the backend schema (tables or indexes) up to date.
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Issues() issues.Repository
	Close(ctx context.Context) error
}

// New connects to the backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (RepositoryManager, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		m, err := NewMongoRepositoryManager(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.DriverPostgres:
		m, err := NewPostgresRepositoryManager(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.DriverMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
