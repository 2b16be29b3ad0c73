package auth

import "github.com/dmitrijs2005/issuedesk/internal/server/models"

// Kind tells a real, token-authenticated user apart from the synthetic
// development bypass identity.
type Kind int

const (
	KindRegular Kind = iota
	KindBypass
)

func (k Kind) String() string {
	if k == KindBypass {
		return "bypass"
	}
	return "regular"
}

// BypassName is the display name of the bypass principal.
const BypassName = "Super Admin"

// Principal is the identity attached to an authenticated request.
// The zero value is not usable; build one with Regular or Bypass.
type Principal struct {
	kind  Kind
	id    string
	name  string
	email string
	role  models.Role
}

// Regular is a principal backed by a stored user.
func Regular(id, name, email string, role models.Role) Principal {
	return Principal{kind: KindRegular, id: id, name: name, email: email, role: role}
}

// Bypass is the synthetic administrator used by the insecure development
// bypass. It has no stored user behind it.
func Bypass(email string) Principal {
	return Principal{kind: KindBypass, name: BypassName, email: email, role: models.RoleAdmin}
}

func (p Principal) Kind() Kind        { return p.kind }
func (p Principal) IsBypass() bool    { return p.kind == KindBypass }
func (p Principal) Name() string      { return p.name }
func (p Principal) Email() string     { return p.email }
func (p Principal) Role() models.Role { return p.role }

// UserID returns the stored user id. It is ("", false) for the bypass
// principal, so callers cannot mistake it for a real user.
func (p Principal) UserID() (string, bool) {
	if p.kind != KindRegular || p.id == "" {
		return "", false
	}
	return p.id, true
}

// RequireAdmin reports whether the principal may use administrator
// operations: either its role is admin or it is the bypass principal.
func RequireAdmin(p Principal) bool {
	return p.role == models.RoleAdmin || p.kind == KindBypass
}
