// Package card holds the card-number rules shared by the vault and the hosted form.
package card

import (
	"errors"
	"strings"
	"time"

	"github.com/cardvault/gateway/internal/model"
)

// Validation errors.
var (
	ErrInvalidNumber = errors.New("invalid card number")
	ErrInvalidExpiry = errors.New("invalid expiration")
	ErrExpired       = errors.New("card is expired")
)

const (
	minPANLength = 13
	maxPANLength = 19
)

// Brand classifies a card number by prefix. Rules are evaluated in order.
func Brand(pan string) string {
	switch {
	case strings.HasPrefix(pan, "4"):
		return model.BrandVisa
	case len(pan) >= 2 && pan[0] == '5' && pan[1] >= '1' && pan[1] <= '5':
		return model.BrandMastercard
	case strings.HasPrefix(pan, "34"), strings.HasPrefix(pan, "37"):
		return model.BrandAmex
	case strings.HasPrefix(pan, "6011"), strings.HasPrefix(pan, "65"):
		return model.BrandDiscover
	default:
		return model.BrandUnknown
	}
}

// Last4 returns the last four characters of the number, or all of it when shorter.
func Last4(pan string) string {
	if len(pan) <= 4 {
		return pan
	}
	return pan[len(pan)-4:]
}

// Normalize strips everything except digits.
func Normalize(pan string) string {
	var sb strings.Builder
	sb.Grow(len(pan))
	for i := 0; i < len(pan); i++ {
		if pan[i] >= '0' && pan[i] <= '9' {
			sb.WriteByte(pan[i])
		}
	}
	return sb.String()
}

// LuhnValid runs the mod-10 check over an all-digit string.
func LuhnValid(pan string) bool {
	if pan == "" {
		return false
	}
	sum, dbl := 0, false
	for i := len(pan) - 1; i >= 0; i-- {
		c := pan[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if dbl {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		dbl = !dbl
	}
	return sum%10 == 0
}

// ValidateNumber checks length and Luhn digit of a normalized number.
func ValidateNumber(pan string) error {
	if len(pan) < minPANLength || len(pan) > maxPANLength || !LuhnValid(pan) {
		return ErrInvalidNumber
	}
	return nil
}

// ValidateExpiry checks the month range and that the card is valid through
// the last day of its expiry month relative to now.
func ValidateExpiry(month, year int, now time.Time) error {
	if month < 1 || month > 12 || year < 1 {
		return ErrInvalidExpiry
	}
	// First instant after the expiry month.
	end := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.UTC().Before(end) {
		return ErrExpired
	}
	return nil
}
