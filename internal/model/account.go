// Package model defines domain entities for the application.
package model

import "time"

// Role determines fee treatment and visibility across the ledger.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleMerchant Role = "merchant"
)

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleMerchant
}

// Account represents a signed-up user. Email is the unique key.
type Account struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the verified requester attached to authenticated requests.
type Identity struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	// SessionID is the credential's unique id, used for revocation.
	SessionID string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// IsOwner returns true for the platform owner.
func (i *Identity) IsOwner() bool {
	return i != nil && i.Role == RoleOwner
}
