package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It is used by tests and by
// the "memory" storage driver for local runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Reset != nil {
		r := *u.Reset
		c.Reset = &r
	}
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := r.now()
	u := cloneUser(user)
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now

	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return cloneUser(u), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.lookupEmail(email)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u), nil
}

func (r *MemoryRepository) lookupEmail(email string) (*models.User, bool) {
	id, ok := r.byEmail[email]
	if !ok {
		return nil, false
	}
	return r.byID[id], true
}

func (r *MemoryRepository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.User, 0, len(r.byID))
	for _, u := range r.byID {
		result = append(result, cloneUser(u))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *MemoryRepository) SetRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.lookupEmail(email)
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Role = role
	u.UpdatedAt = r.now()
	return cloneUser(u), nil
}

func (r *MemoryRepository) SetPasswordReset(ctx context.Context, email string, reset models.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.lookupEmail(email)
	if !ok {
		return common.ErrorNotFound
	}
	u.Reset = &reset
	u.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) ConsumePasswordReset(ctx context.Context, email, code string, now time.Time, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.lookupEmail(email)
	if !ok || !u.Reset.Active(now) || u.Reset.Code != code {
		return common.ErrorInvalidOTP
	}
	u.PasswordHash = passwordHash
	u.Reset = nil
	u.UpdatedAt = now
	return nil
}
