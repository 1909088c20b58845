package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/cardvault/gateway/internal/model"
)

// Common errors for ledger repository operations.
var (
	ErrAuthorizationNotFound = errors.New("authorization not found")
	ErrAuthorizationExists   = errors.New("authorization already exists")
	ErrAlreadyCaptured       = errors.New("authorization already captured")
	ErrAlreadyRefunded       = errors.New("authorization already refunded")
	ErrNotCaptured           = errors.New("authorization not captured")
)

// DefaultListLimit caps list queries when no limit is given.
const DefaultListLimit = 100

// AuthorizationFilter defines filters for listing authorizations.
type AuthorizationFilter struct {
	// OwnerEmail restricts results to one account. Empty means all accounts.
	OwnerEmail string
	Limit      int
}

// EffectiveLimit returns the limit to apply.
func (f AuthorizationFilter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > DefaultListLimit {
		return DefaultListLimit
	}
	return f.Limit
}

const authorizationColumns = `id, amount, token, owner_email, fee, captured, refunded, created_at`

// CreateAuthorization inserts a new open authorization.
// The token foreign key guarantees the card token exists.
func (r *Repository) CreateAuthorization(ctx context.Context, auth *model.Authorization) error {
	query := `
		INSERT INTO authorizations (id, amount, token, owner_email, fee, captured, refunded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		auth.ID,
		auth.Amount,
		auth.Token,
		auth.OwnerEmail,
		auth.Fee,
		auth.Captured,
		auth.Refunded,
		auth.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrTokenNotFound
		}
		if isUniqueViolation(err) {
			return ErrAuthorizationExists
		}
		return fmt.Errorf("failed to create authorization: %w", err)
	}

	return nil
}

// GetAuthorization retrieves an authorization by its ID.
func (r *Repository) GetAuthorization(ctx context.Context, id string) (*model.Authorization, error) {
	query := `SELECT ` + authorizationColumns + ` FROM authorizations WHERE id = $1`

	auth, err := scanAuthorization(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAuthorizationNotFound
		}
		return nil, fmt.Errorf("failed to get authorization: %w", err)
	}

	return auth, nil
}

// ListAuthorizations returns authorizations newest first.
func (r *Repository) ListAuthorizations(ctx context.Context, filter AuthorizationFilter) ([]*model.Authorization, error) {
	query := `SELECT ` + authorizationColumns + ` FROM authorizations`
	args := []any{}

	if filter.OwnerEmail != "" {
		query += ` WHERE owner_email = $1`
		args = append(args, filter.OwnerEmail)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, filter.EffectiveLimit())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorizations: %w", err)
	}
	defer rows.Close()

	var auths []*model.Authorization
	for rows.Next() {
		auth, err := scanAuthorization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan authorization: %w", err)
		}
		auths = append(auths, auth)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating authorizations: %w", err)
	}

	return auths, nil
}

// CaptureAuthorization flips captured on an open authorization and records
// the settlement transaction in the same database transaction. The UPDATE is
// conditional on the guard flags, so concurrent captures serialize on the row
// lock and only the first one matches.
func (r *Repository) CaptureAuthorization(ctx context.Context, id string, txn *model.Transaction) (*model.Authorization, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin capture: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE authorizations
		SET captured = TRUE
		WHERE id = $1 AND captured = FALSE AND refunded = FALSE
		RETURNING ` + authorizationColumns

	auth, err := scanAuthorization(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, classifyGuardMiss(ctx, tx, id, true)
		}
		return nil, fmt.Errorf("failed to capture authorization: %w", err)
	}

	txn.AuthorizationID = auth.ID
	txn.Amount = auth.Amount
	txn.Fee = auth.Fee

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, authorization_id, amount, fee, settled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, txn.ID, txn.AuthorizationID, txn.Amount, txn.Fee, txn.Settled, txn.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyCaptured
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit capture: %w", err)
	}

	return auth, nil
}

// RefundAuthorization flips refunded on a captured authorization and records
// a full-amount refund in the same database transaction.
func (r *Repository) RefundAuthorization(ctx context.Context, id string, refund *model.Refund) (*model.Authorization, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin refund: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE authorizations
		SET refunded = TRUE
		WHERE id = $1 AND captured = TRUE AND refunded = FALSE
		RETURNING ` + authorizationColumns

	auth, err := scanAuthorization(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, classifyGuardMiss(ctx, tx, id, false)
		}
		return nil, fmt.Errorf("failed to refund authorization: %w", err)
	}

	refund.AuthorizationID = auth.ID
	refund.Amount = auth.Amount

	_, err = tx.Exec(ctx, `
		INSERT INTO refunds (id, authorization_id, amount, created_at)
		VALUES ($1, $2, $3, $4)
	`, refund.ID, refund.AuthorizationID, refund.Amount, refund.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRefunded
		}
		return nil, fmt.Errorf("failed to insert refund: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit refund: %w", err)
	}

	return auth, nil
}

// GetTransactionsByAuthorizationIDs returns settlement transactions keyed by authorization ID.
func (r *Repository) GetTransactionsByAuthorizationIDs(ctx context.Context, ids []string) (map[string]*model.Transaction, error) {
	result := make(map[string]*model.Transaction, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, authorization_id, amount, fee, settled, created_at
		FROM transactions
		WHERE authorization_id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.AuthorizationID, &t.Amount, &t.Fee, &t.Settled, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result[t.AuthorizationID] = &t
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return result, nil
}

// GetRefundsByAuthorizationIDs returns refunds keyed by authorization ID.
func (r *Repository) GetRefundsByAuthorizationIDs(ctx context.Context, ids []string) (map[string]*model.Refund, error) {
	result := make(map[string]*model.Refund, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, authorization_id, amount, created_at
		FROM refunds
		WHERE authorization_id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get refunds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rf model.Refund
		if err := rows.Scan(&rf.ID, &rf.AuthorizationID, &rf.Amount, &rf.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		result[rf.AuthorizationID] = &rf
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating refunds: %w", err)
	}

	return result, nil
}

// classifyGuardMiss explains why a conditional update matched no row.
// Guards are checked in the same order the state machine applies them.
func classifyGuardMiss(ctx context.Context, tx pgx.Tx, id string, capturing bool) error {
	var captured, refunded bool
	err := tx.QueryRow(ctx,
		`SELECT captured, refunded FROM authorizations WHERE id = $1`, id,
	).Scan(&captured, &refunded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAuthorizationNotFound
		}
		return fmt.Errorf("failed to read authorization state: %w", err)
	}

	if capturing {
		if captured {
			return ErrAlreadyCaptured
		}
		if refunded {
			return ErrAlreadyRefunded
		}
		return fmt.Errorf("capture guard matched no row for %s", id)
	}

	if !captured {
		return ErrNotCaptured
	}
	if refunded {
		return ErrAlreadyRefunded
	}
	return fmt.Errorf("refund guard matched no row for %s", id)
}

// scanAuthorization scans a single row into an Authorization model.
func scanAuthorization(row pgx.Row) (*model.Authorization, error) {
	var auth model.Authorization
	err := row.Scan(
		&auth.ID,
		&auth.Amount,
		&auth.Token,
		&auth.OwnerEmail,
		&auth.Fee,
		&auth.Captured,
		&auth.Refunded,
		&auth.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &auth, nil
}
