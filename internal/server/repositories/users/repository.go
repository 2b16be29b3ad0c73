// Package users stores user accounts. Implementations exist for MongoDB,
// PostgreSQL and process memory; all of them enforce unique emails.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/server/models"
)

// Repository is the credential store contract.
//
// Lookups return common.ErrorNotFound for missing users and
// common.ErrorInvalidID for ids the backend cannot parse. Create returns
// common.ErrorAlreadyExists when the email is taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	SetRole(ctx context.Context, email string, role models.Role) (*models.User, error)

	// SetPasswordReset stores reset on the user, replacing any earlier one.
	SetPasswordReset(ctx context.Context, email string, reset models.PasswordReset) error

	// ConsumePasswordReset replaces the password hash and clears the reset
	// in one atomic step, but only if the stored code equals code and has not
	// expired at now. Otherwise it returns common.ErrorInvalidOTP and changes
	// nothing.
	ConsumePasswordReset(ctx context.Context, email, code string, now time.Time, passwordHash string) error
}
