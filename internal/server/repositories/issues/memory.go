package issues

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	issues map[string]*models.Issue
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{issues: make(map[string]*models.Issue), now: time.Now}
}

func cloneIssue(i *models.Issue) *models.Issue {
	c := *i
	c.Upvotes = slices.Clone(i.Upvotes)
	c.Comments = slices.Clone(i.Comments)
	if c.Upvotes == nil {
		c.Upvotes = []string{}
	}
	if c.Comments == nil {
		c.Comments = []models.Comment{}
	}
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, issue *models.Issue) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	i := cloneIssue(issue)
	i.ID = uuid.NewString()
	i.CreatedAt = now
	i.UpdatedAt = now
	r.issues[i.ID] = i

	return cloneIssue(i), nil
}

// get expects the lock to be held.
func (r *MemoryRepository) get(id string) (*models.Issue, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorInvalidID
	}
	i, ok := r.issues[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return i, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return cloneIssue(i), nil
}

func (r *MemoryRepository) List(ctx context.Context, filter Filter) ([]*models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Issue, 0, len(r.issues))
	for _, i := range r.issues {
		if filter.Status != "" && i.Status != filter.Status {
			continue
		}
		if filter.ExcludeStatus != "" && i.Status == filter.ExcludeStatus {
			continue
		}
		if filter.CreatedBy != "" && i.CreatedBy != filter.CreatedBy {
			continue
		}
		result = append(result, cloneIssue(i))
	}
	sort.Slice(result, func(a, b int) bool { return result[a].CreatedAt.After(result[b].CreatedAt) })
	return result, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, patch Patch) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil {
		i.Status = *patch.Status
	}
	if patch.AssignedTo != nil {
		i.AssignedTo = *patch.AssignedTo
	}
	i.UpdatedAt = r.now()
	return cloneIssue(i), nil
}

func (r *MemoryRepository) AddComment(ctx context.Context, id string, comment models.Comment) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, err := r.get(id)
	if err != nil {
		return nil, err
	}
	i.Comments = append(i.Comments, comment)
	i.UpdatedAt = r.now()
	return cloneIssue(i), nil
}

func (r *MemoryRepository) ToggleUpvote(ctx context.Context, id, email string) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if idx := slices.Index(i.Upvotes, email); idx >= 0 {
		i.Upvotes = slices.Delete(i.Upvotes, idx, idx+1)
	} else {
		i.Upvotes = append(i.Upvotes, email)
	}
	i.UpdatedAt = r.now()
	return cloneIssue(i), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.get(id); err != nil {
		return err
	}
	delete(r.issues, id)
	return nil
}
