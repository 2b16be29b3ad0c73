package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, r *MemoryRepository, email string) *models.User {
	t.Helper()
	u, err := r.Create(context.Background(), &models.User{Name: "Ann", Email: email, PasswordHash: "h", Role: models.RoleUser})
	require.NoError(t, err)
	return u
}

func TestMemory_CreateAndFind(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	u := seedUser(t, r, "a@x.com")
	assert.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byID, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	byEmail, err := r.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = r.FindByEmail(ctx, "A@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound, "emails are case-sensitive")
}

func TestMemory_DuplicateEmail(t *testing.T) {
	r := NewMemoryRepository()
	seedUser(t, r, "a@x.com")

	_, err := r.Create(context.Background(), &models.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestMemory_ConcurrentCreateSameEmail(t *testing.T) {
	r := NewMemoryRepository()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Create(context.Background(), &models.User{Email: "race@x.com"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestMemory_FindByID_Errors(t *testing.T) {
	r := NewMemoryRepository()

	_, err := r.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorInvalidID)

	_, err = r.FindByID(context.Background(), "6f1c3c9e-2a4b-4c1e-9f57-0b8c1d2e3f40")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	r := NewMemoryRepository()
	u := seedUser(t, r, "a@x.com")
	u.Name = "mutated"

	again, err := r.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", again.Name)
}

func TestMemory_SetRoleAndList(t *testing.T) {
	r := NewMemoryRepository()
	seedUser(t, r, "a@x.com")
	seedUser(t, r, "b@x.com")

	u, err := r.SetRole(context.Background(), "b@x.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	_, err = r.SetRole(context.Background(), "ghost@x.com", models.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	all, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemory_PasswordResetLifecycle(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedUser(t, r, "a@x.com")
	now := time.Now()

	require.NoError(t, r.SetPasswordReset(ctx, "a@x.com", models.PasswordReset{Code: "111111", ExpiresAt: now.Add(10 * time.Minute)}))
	// a second request replaces the first code
	require.NoError(t, r.SetPasswordReset(ctx, "a@x.com", models.PasswordReset{Code: "222222", ExpiresAt: now.Add(10 * time.Minute)}))

	assert.ErrorIs(t, r.ConsumePasswordReset(ctx, "a@x.com", "111111", now, "new"), common.ErrorInvalidOTP)
	require.NoError(t, r.ConsumePasswordReset(ctx, "a@x.com", "222222", now, "new"))
	assert.ErrorIs(t, r.ConsumePasswordReset(ctx, "a@x.com", "222222", now, "newer"), common.ErrorInvalidOTP, "replay must fail")

	u, err := r.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "new", u.PasswordHash)
	assert.Nil(t, u.Reset)
}

func TestMemory_PasswordResetExpired(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	seedUser(t, r, "a@x.com")
	now := time.Now()

	require.NoError(t, r.SetPasswordReset(ctx, "a@x.com", models.PasswordReset{Code: "111111", ExpiresAt: now}))
	assert.ErrorIs(t, r.ConsumePasswordReset(ctx, "a@x.com", "111111", now, "new"), common.ErrorInvalidOTP)

	assert.ErrorIs(t, r.SetPasswordReset(ctx, "ghost@x.com", models.PasswordReset{}), common.ErrorNotFound)
	assert.ErrorIs(t, r.ConsumePasswordReset(ctx, "ghost@x.com", "1", now, "x"), common.ErrorInvalidOTP)
}
