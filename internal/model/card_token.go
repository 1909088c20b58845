package model

import "time"

// Card brands derived from the card number prefix.
const (
	BrandVisa       = "visa"
	BrandMastercard = "mastercard"
	BrandAmex       = "amex"
	BrandDiscover   = "discover"
	BrandUnknown    = "unknown"
)

// CardToken is the vaulted, masked view of a card. It never holds the full
// number or the CVV and is immutable once created.
type CardToken struct {
	Token       string    `json:"token"`
	Last4       string    `json:"last4"`
	Brand       string    `json:"brand"`
	ExpiryMonth int       `json:"exp_month"`
	ExpiryYear  int       `json:"exp_year"`
	CreatedAt   time.Time `json:"created_at"`
}
