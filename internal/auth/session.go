package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cardvault/gateway/internal/model"
)

// Issuer is the iss claim on every session credential.
const Issuer = "cardvault-gateway"

var (
	// ErrInvalidSession indicates a malformed, tampered or foreign credential.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSessionExpired indicates a well-formed credential past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// SessionClaims is the signed payload of a session credential.
type SessionClaims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session credentials.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager creates a manager signing with secret.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

// TTL returns the credential lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a credential for account and returns it with the identity it carries.
func (m *SessionManager) Issue(account *model.Account) (string, *model.Identity, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	jti := uuid.NewString()

	claims := SessionClaims{
		Email: account.Email,
		Role:  account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   account.Email,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}

	return token, &model.Identity{
		Email:     account.Email,
		Role:      account.Role,
		SessionID: jti,
		ExpiresAt: expiresAt.Truncate(time.Second),
	}, nil
}

// Verify checks signature, issuer and expiry and returns the carried identity.
func (m *SessionManager) Verify(tokenString string) (*model.Identity, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if claims.Email == "" || !claims.Role.IsValid() || claims.ID == "" {
		return nil, ErrInvalidSession
	}

	return &model.Identity{
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
