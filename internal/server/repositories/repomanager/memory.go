package repomanager

import (
	"context"

	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/issues"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. Data is lost
// on restart; it backs tests and local runs.
type MemoryRepositoryManager struct {
	users  *users.MemoryRepository
	issues *issues.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:  users.NewMemoryRepository(),
		issues: issues.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository   { return m.users }
func (m *MemoryRepositoryManager) Issues() issues.Repository { return m.issues }

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }
func (m *MemoryRepositoryManager) Close(ctx context.Context) error         { return nil }
