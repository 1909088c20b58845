package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/badoux/checkmail"

	"github.com/cardvault/gateway/internal/auth"
	"github.com/cardvault/gateway/internal/metrics"
	"github.com/cardvault/gateway/internal/model"
	"github.com/cardvault/gateway/internal/repository"
)

// IdentityService handles signup, login and owner seeding.
type IdentityService struct {
	accounts   AccountStore
	sessions   *auth.SessionManager
	ownerEmail string
	hashParams auth.Params
	metrics    metrics.Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewIdentityService creates a new IdentityService. ownerEmail is the address
// that receives the owner role; empty means nobody does.
func NewIdentityService(accounts AccountStore, sessions *auth.SessionManager, ownerEmail string, recorder metrics.Recorder, logger *slog.Logger) *IdentityService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityService{
		accounts:   accounts,
		sessions:   sessions,
		ownerEmail: NormalizeEmail(ownerEmail),
		hashParams: auth.DefaultParams,
		metrics:    recorder,
		logger:     logger,
		now:        time.Now,
	}
}

// WithHashParams overrides the Argon2id cost. Used by tests.
func (s *IdentityService) WithHashParams(p auth.Params) *IdentityService {
	s.hashParams = p
	return s
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Credentials are the email/password pair used by signup and login.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) normalized() (string, error) {
	email := NormalizeEmail(c.Email)
	if email == "" || c.Password == "" {
		return "", ErrMissingFields
	}
	return email, nil
}

// RoleFor returns the role an address signs up with.
func (s *IdentityService) RoleFor(email string) model.Role {
	if s.ownerEmail != "" && NormalizeEmail(email) == s.ownerEmail {
		return model.RoleOwner
	}
	return model.RoleMerchant
}

// Signup creates an account. The role is owner iff the email is the configured owner address.
func (s *IdentityService) Signup(ctx context.Context, in Credentials) (*model.Account, error) {
	email, err := in.normalized()
	if err != nil {
		return nil, err
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, ErrInvalidEmail
	}

	account, err := s.createAccount(ctx, email, in.Password, s.RoleFor(email))
	if err != nil {
		return nil, err
	}

	s.metrics.IncSignup()
	s.logger.Info("account_created", "email", account.Email, "role", account.Role)
	return account, nil
}

// LoginResult carries a freshly issued session credential.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *model.Account
}

// Login verifies the password and issues a session credential carrying {email, role}.
func (s *IdentityService) Login(ctx context.Context, in Credentials) (*LoginResult, error) {
	email, err := in.normalized()
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			s.metrics.IncLoginFailed()
			return nil, ErrAccountNotFound
		}
		return nil, storageError("failed to load account", err)
	}

	ok, err := auth.VerifyPassword(in.Password, account.PasswordHash)
	if err != nil {
		return nil, storageError("stored password hash is unreadable", err)
	}
	if !ok {
		s.metrics.IncLoginFailed()
		return nil, ErrInvalidCredentials
	}

	token, id, err := s.sessions.Issue(account)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, ExpiresAt: id.ExpiresAt, Account: account}, nil
}

// EnsureOwner creates the owner account when it does not exist yet.
// Returns true when an account was created.
func (s *IdentityService) EnsureOwner(ctx context.Context, password string) (bool, error) {
	if s.ownerEmail == "" {
		return false, nil
	}
	if password == "" {
		return false, ErrMissingFields
	}

	_, err := s.accounts.GetAccountByEmail(ctx, s.ownerEmail)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return false, storageError("failed to look up owner", err)
	}

	if _, err := s.createAccount(ctx, s.ownerEmail, password, model.RoleOwner); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return false, nil
		}
		return false, err
	}

	s.logger.Warn("owner account seeded; rotate the initial password", "email", s.ownerEmail)
	return true, nil
}

func (s *IdentityService) createAccount(ctx context.Context, email, password string, role model.Role) (*model.Account, error) {
	hash, err := auth.HashPasswordWithParams(password, s.hashParams)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, storageError("failed to create account", err)
	}

	return account, nil
}
