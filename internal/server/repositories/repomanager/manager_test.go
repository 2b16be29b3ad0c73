package repomanager

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/issuedesk/internal/server/config"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Memory(t *testing.T) {
	m, err := New(context.Background(), config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(context.Background()))

	u, err := m.Users().Create(context.Background(), &models.User{Email: "a@x.com", Role: models.RoleUser})
	require.NoError(t, err)
	_, err = m.Issues().Create(context.Background(), &models.Issue{Title: "t", CreatedBy: u.ID})
	require.NoError(t, err)

	assert.NoError(t, m.Close(context.Background()))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "sqlite"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"sqlite"`)
}
