package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardvault/gateway/internal/model"
)

// Common errors for card token repository operations.
var (
	ErrTokenNotFound = errors.New("card token not found")
	ErrTokenExists   = errors.New("card token already exists")
)

// CreateCardToken inserts a vaulted card token.
func (r *Repository) CreateCardToken(ctx context.Context, token *model.CardToken) error {
	query := `
		INSERT INTO tokens (token, last4, brand, exp_month, exp_year, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		token.Token,
		token.Last4,
		token.Brand,
		token.ExpiryMonth,
		token.ExpiryYear,
		token.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrTokenExists
		}
		return fmt.Errorf("failed to create card token: %w", err)
	}

	return nil
}

// GetCardToken retrieves a vaulted card token.
func (r *Repository) GetCardToken(ctx context.Context, token string) (*model.CardToken, error) {
	query := `
		SELECT token, last4, brand, exp_month, exp_year, created_at
		FROM tokens
		WHERE token = $1
	`

	var t model.CardToken
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&t.Token,
		&t.Last4,
		&t.Brand,
		&t.ExpiryMonth,
		&t.ExpiryYear,
		&t.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get card token: %w", err)
	}

	return &t, nil
}
