package model

import "time"

// AuthorizationState is derived from the captured/refunded flags.
type AuthorizationState string

const (
	AuthorizationOpen     AuthorizationState = "open"
	AuthorizationCaptured AuthorizationState = "captured"
	AuthorizationRefunded AuthorizationState = "refunded"
)

// Authorization reserves an amount against a card token.
// Captured and Refunded only ever move from false to true.
type Authorization struct {
	ID         string    `json:"id"`
	Amount     int64     `json:"amount"`
	Token      string    `json:"token"`
	OwnerEmail string    `json:"owner_email"`
	Fee        int64     `json:"fee"`
	Captured   bool      `json:"captured"`
	Refunded   bool      `json:"refunded"`
	CreatedAt  time.Time `json:"created_at"`
}

// State computes the lifecycle state of the authorization.
func (a *Authorization) State() AuthorizationState {
	switch {
	case a.Refunded:
		return AuthorizationRefunded
	case a.Captured:
		return AuthorizationCaptured
	default:
		return AuthorizationOpen
	}
}

// NetToMerchant is the amount left after the platform fee.
func (a *Authorization) NetToMerchant() int64 {
	return a.Amount - a.Fee
}

// VisibleTo reports whether the identity may read or mutate this authorization.
func (a *Authorization) VisibleTo(id *Identity) bool {
	if id == nil {
		return false
	}
	return id.IsOwner() || a.OwnerEmail == id.Email
}

// Transaction is the settlement record produced by a capture.
type Transaction struct {
	ID              string    `json:"id"`
	AuthorizationID string    `json:"authorization_id"`
	Amount          int64     `json:"amount"`
	Fee             int64     `json:"fee"`
	Settled         bool      `json:"settled"`
	CreatedAt       time.Time `json:"created_at"`
}

// Refund records the full reversal of a captured authorization.
type Refund struct {
	ID              string    `json:"id"`
	AuthorizationID string    `json:"authorization_id"`
	Amount          int64     `json:"amount"`
	CreatedAt       time.Time `json:"created_at"`
}

// AuthorizationDetail bundles an authorization with its settlement records.
type AuthorizationDetail struct {
	Authorization *Authorization
	Transaction   *Transaction
	Refund        *Refund
}
