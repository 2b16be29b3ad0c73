// Package issues stores reported issues together with their comments and
// upvotes.
package issues

import (
	"context"

	"github.com/dmitrijs2005/issuedesk/internal/server/models"
)

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Status        models.IssueStatus
	ExcludeStatus models.IssueStatus
	CreatedBy     string
}

// Patch holds the mutable issue fields; nil means "leave as is".
type Patch struct {
	Status     *models.IssueStatus
	AssignedTo *string
}

// Repository is the issue store contract. Lookups by id return
// common.ErrorInvalidID for ids the backend cannot parse and
// common.ErrorNotFound for missing issues. List returns newest first.
type Repository interface {
	Create(ctx context.Context, issue *models.Issue) (*models.Issue, error)
	FindByID(ctx context.Context, id string) (*models.Issue, error)
	List(ctx context.Context, filter Filter) ([]*models.Issue, error)
	Update(ctx context.Context, id string, patch Patch) (*models.Issue, error)
	AddComment(ctx context.Context, id string, comment models.Comment) (*models.Issue, error)

	// ToggleUpvote adds email to the upvotes or removes it when present.
	ToggleUpvote(ctx context.Context, id, email string) (*models.Issue, error)

	Delete(ctx context.Context, id string) error
}
