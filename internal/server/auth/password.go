package auth

import (
	"fmt"
	"unicode"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and checks passwords. The bcrypt implementation is
// the only one in production; tests may swap in a cheaper cost.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost; cost <= 0 selects
// bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// policyError is a rejection whose text is shown to the client. Every
// policyError matches common.ErrorInvalidPassword.
type policyError string

func (e policyError) Error() string { return string(e) }

func (e policyError) Is(target error) bool { return target == common.ErrorInvalidPassword }

var (
	// ErrWeakPassword is returned by CheckPasswordPolicy.
	ErrWeakPassword error = policyError("password must be at least 6 characters and contain a letter and a digit")
	// ErrPasswordTooLong is returned by CheckPasswordLength.
	ErrPasswordTooLong error = policyError("password must be at most 72 bytes")
)

const (
	// MinPasswordLength is the shortest password the policy accepts.
	MinPasswordLength = 6
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// CheckPasswordLength rejects passwords bcrypt cannot hash. It applies
// whether or not the strength policy is enabled.
func CheckPasswordLength(password string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// CheckPasswordPolicy requires at least MinPasswordLength characters with at
// least one letter and one digit.
func CheckPasswordPolicy(password string) error {
	var letter, digit bool
	n := 0
	for _, r := range password {
		n++
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if n < MinPasswordLength || !letter || !digit {
		return ErrWeakPassword
	}
	return nil
}
