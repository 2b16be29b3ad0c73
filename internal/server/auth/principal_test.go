package auth

import (
	"testing"

	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestRegularPrincipal(t *testing.T) {
	p := Regular("u1", "Ann", "a@x.com", models.RoleUser)

	id, ok := p.UserID()
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
	assert.Equal(t, KindRegular, p.Kind())
	assert.False(t, p.IsBypass())
	assert.Equal(t, "Ann", p.Name())
	assert.Equal(t, "a@x.com", p.Email())
	assert.Equal(t, models.RoleUser, p.Role())
}

func TestBypassPrincipalHasNoUserID(t *testing.T) {
	p := Bypass("admin@localhost")

	id, ok := p.UserID()
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.True(t, p.IsBypass())
	assert.Equal(t, "bypass", p.Kind().String())
	assert.Equal(t, BypassName, p.Name())
	assert.Equal(t, models.RoleAdmin, p.Role())
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		p    Principal
		want bool
	}{
		{"regular user", Regular("u1", "A", "a@x.com", models.RoleUser), false},
		{"regular admin", Regular("u2", "B", "b@x.com", models.RoleAdmin), true},
		{"bypass", Bypass(""), true},
		{"zero value", Principal{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequireAdmin(tt.p))
		})
	}
}
