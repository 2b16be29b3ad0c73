// Package auth contains the building blocks of request authentication:
// signed session tokens, password hashing and the request principal.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
)

// Claims is the token payload: the standard claims (sub, iat, exp) plus the
// role and email of the user at issuance time.
type Claims struct {
	jwt.RegisteredClaims
	Role  models.Role `json:"role"`
	Email string      `json:"email,omitempty"`
}

// TokenService issues and verifies HS256 session tokens. Tokens are not
// stored anywhere, so there is no way to revoke one before it expires.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret []byte, validity time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{secret: secret, validity: validity, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue signs a token for the user valid for the configured duration.
func (s *TokenService) Issue(userID string, role models.Role, email string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		Role:  role,
		Email: email,
	})

	return token.SignedString(s.secret)
}

// Verify checks signature, algorithm and expiry. A token is accepted up to
// and including its expiry instant and rejected strictly after it.
// ErrTokenExpired is returned for expired tokens and ErrTokenMalformed for
// everything else.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	// jwt treats now == exp as expired, so expiry is checked below instead.
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.Subject == "" || claims.Role == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}

	if s.now().After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}
