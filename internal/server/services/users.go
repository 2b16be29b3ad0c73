// Package services holds the business logic behind the HTTP handlers and the
// admin CLI.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/dmitrijs2005/issuedesk/internal/logging"
	"github.com/dmitrijs2005/issuedesk/internal/server/auth"
	"github.com/dmitrijs2005/issuedesk/internal/server/config"
	"github.com/dmitrijs2005/issuedesk/internal/server/mailer"
	"github.com/dmitrijs2005/issuedesk/internal/server/metrics"
	"github.com/dmitrijs2005/issuedesk/internal/server/models"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/users"
)

const otpDigits = 6

// MailerFactory builds the notification sender. It is called per use so a
// broken provider configuration surfaces on the request that needs mail.
type MailerFactory func() (mailer.Sender, error)

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	User  *models.User
	Token string
}

type UserService struct {
	users   users.Repository
	tokens  *auth.TokenService
	hasher  auth.PasswordHasher
	mail    MailerFactory
	cfg     config.AuthConfig
	log     logging.Logger
	metrics *metrics.Metrics

	now    func() time.Time
	newOTP func() (string, error)

	dummyOnce sync.Once
	dummy     string
}

func NewUserService(repo users.Repository, tokens *auth.TokenService, hasher auth.PasswordHasher,
	mail MailerFactory, cfg config.AuthConfig, log logging.Logger, m *metrics.Metrics) *UserService {
	if log == nil {
		log = logging.Nop{}
	}
	return &UserService{
		users:   repo,
		tokens:  tokens,
		hasher:  hasher,
		mail:    mail,
		cfg:     cfg,
		log:     log,
		metrics: m,
		now:     time.Now,
		newOTP:  func() (string, error) { return common.MakeRandDigits(otpDigits) },
	}
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func (s *UserService) checkPassword(password string) error {
	if err := auth.CheckPasswordLength(password); err != nil {
		return err
	}
	if !s.cfg.PasswordPolicy {
		return nil
	}
	return auth.CheckPasswordPolicy(password)
}

// dummyHash is compared against when the email is unknown so a failed login
// costs the same bcrypt work either way.
func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("issuedesk-dummy-password")
		if err != nil {
			s.log.Error(context.Background(), "dummy hash failed", "error", err)
			return
		}
		s.dummy = h
	})
	return s.dummy
}

// Register creates a regular user. The role is always RoleUser; promotion
// happens only through the admin CLI.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	if blank(name, email, password) {
		return nil, common.ErrorMissingField
	}
	if err := s.checkPassword(password); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.AuthEvent("register", "duplicate")
		return nil, common.ErrorAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	user, err := s.users.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleUser})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.metrics.AuthEvent("register", "duplicate")
			return nil, err
		}
		return nil, fmt.Errorf("%w: create user: %v", common.ErrorInternal, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Role, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}

	s.metrics.AuthEvent("register", "success")
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Login returns ErrorUnauthorized for blank credentials, an unknown email
// and a wrong password alike.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if blank(email, password) {
		s.metrics.AuthEvent("login", "failure")
		return nil, common.ErrorUnauthorized
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Compare(s.dummyHash(), password)
			s.metrics.AuthEvent("login", "failure")
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		s.metrics.AuthEvent("login", "failure")
		return nil, common.ErrorUnauthorized
	}

	token, err := s.tokens.Issue(user.ID, user.Role, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}

	s.metrics.AuthEvent("login", "success")
	return &AuthResult{User: user, Token: token}, nil
}

// ForgotPassword stores a fresh reset code for the user and mails it. The
// new code replaces any earlier one. Delivery failures are logged and do
// not fail the call.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	if blank(email) {
		return common.ErrorMissingField
	}

	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	sender, err := s.mail()
	if err != nil {
		return fmt.Errorf("%w: mailer: %v", common.ErrorInternal, err)
	}

	code, err := s.newOTP()
	if err != nil {
		return fmt.Errorf("%w: generate otp: %v", common.ErrorInternal, err)
	}

	reset := models.PasswordReset{Code: code, ExpiresAt: s.now().Add(s.cfg.OTPValidity)}
	if err := s.users.SetPasswordReset(ctx, email, reset); err != nil {
		return fmt.Errorf("%w: store otp: %v", common.ErrorInternal, err)
	}

	err = sender.Send(ctx, mailer.PasswordResetMessage(email, code, s.cfg.OTPValidity))
	s.metrics.Mail("password_reset", err)
	if err != nil {
		s.log.Error(ctx, "password reset mail failed", "email", email, "error", err)
	}

	s.metrics.AuthEvent("forgot_password", "issued")
	return nil
}

// VerifyOTP checks a reset code without consuming it.
func (s *UserService) VerifyOTP(ctx context.Context, email, code string) error {
	if blank(email, code) {
		return common.ErrorInvalidOTP
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInvalidOTP
		}
		return fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	if !user.Reset.Active(s.now()) || subtle.ConstantTimeCompare([]byte(user.Reset.Code), []byte(code)) != 1 {
		s.metrics.AuthEvent("verify_otp", "failure")
		return common.ErrorInvalidOTP
	}

	s.metrics.AuthEvent("verify_otp", "success")
	return nil
}

// ResetPassword sets a new password if code is the user's current,
// unexpired reset code. The check and the update happen atomically in the
// store, so a code works only once.
func (s *UserService) ResetPassword(ctx context.Context, email, code, password string) error {
	if blank(email, code) {
		return common.ErrorInvalidOTP
	}
	if blank(password) {
		return common.ErrorMissingField
	}
	if err := s.checkPassword(password); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := s.users.ConsumePasswordReset(ctx, email, code, s.now(), hash); err != nil {
		if errors.Is(err, common.ErrorInvalidOTP) {
			s.metrics.AuthEvent("reset_password", "failure")
			return common.ErrorInvalidOTP
		}
		return fmt.Errorf("%w: reset password: %v", common.ErrorInternal, err)
	}

	s.metrics.AuthEvent("reset_password", "success")
	s.log.Info(ctx, "password reset", "email", email)
	return nil
}

// BypassEnabled reports whether the insecure development bypass is on.
func (s *UserService) BypassEnabled() bool {
	return s.cfg.AllowInsecureBypass
}

// BypassPrincipal returns the synthetic admin and logs the use.
func (s *UserService) BypassPrincipal(ctx context.Context, trigger string) auth.Principal {
	s.metrics.AuthEvent("bypass", "used")
	s.log.Warn(ctx, "admin bypass used", "trigger", trigger)
	return auth.Bypass(s.cfg.BypassEmail)
}

// Authenticate turns a bearer token into a principal. It returns
// ErrorUnauthenticated for a bad or expired token and ErrorNotFound when
// the token's subject no longer exists.
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	if s.cfg.AllowInsecureBypass && token == "bypass" {
		return s.BypassPrincipal(ctx, "token"), nil
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.metrics.AuthEvent("token", "rejected")
		return auth.Principal{}, fmt.Errorf("%w: %v", common.ErrorUnauthenticated, err)
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorInvalidID) {
			return auth.Principal{}, common.ErrorNotFound
		}
		return auth.Principal{}, fmt.Errorf("%w: load user: %v", common.ErrorInternal, err)
	}

	// Email and role come from the token when it carries them, so a role
	// change takes effect only after the user logs in again.
	email, role := user.Email, user.Role
	if claims.Email != "" {
		email = claims.Email
	}
	if claims.Role.Valid() {
		role = claims.Role
	}
	return auth.Regular(user.ID, user.Name, email, role), nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", common.ErrorInternal, err)
	}
	return all, nil
}

// PromoteAdmin gives an existing account the admin role.
func (s *UserService) PromoteAdmin(ctx context.Context, email string) (*models.User, error) {
	if blank(email) {
		return nil, common.ErrorMissingField
	}
	u, err := s.users.SetRole(ctx, email, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: set role: %v", common.ErrorInternal, err)
	}
	s.log.Info(ctx, "user promoted to admin", "email", email)
	return u, nil
}

// CreateAdmin creates a new account that is an administrator from the start.
func (s *UserService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	if blank(name, email, password) {
		return nil, common.ErrorMissingField
	}
	if err := s.checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	u, err := s.users.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: create user: %v", common.ErrorInternal, err)
	}
	s.log.Info(ctx, "admin created", "email", email)
	return u, nil
}
