// Package memory provides a concurrency-safe in-memory store with the same
// contract as the PostgreSQL repository. Used for tests and local demos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cardvault/gateway/internal/model"
	"github.com/cardvault/gateway/internal/repository"
)

// Store holds all records behind a single lock. Every check-and-set runs
// while the write lock is held, which makes capture and refund linearizable.
type Store struct {
	mu             sync.RWMutex
	accounts       map[string]*model.Account
	tokens         map[string]*model.CardToken
	authorizations map[string]*model.Authorization
	transactions   map[string]*model.Transaction // keyed by authorization ID
	refunds        map[string]*model.Refund      // keyed by authorization ID
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts:       make(map[string]*model.Account),
		tokens:         make(map[string]*model.CardToken),
		authorizations: make(map[string]*model.Authorization),
		transactions:   make(map[string]*model.Transaction),
		refunds:        make(map[string]*model.Refund),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() {}

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Email]; ok {
		return repository.ErrEmailExists
	}
	cp := *account
	s.accounts[account.Email] = &cp
	return nil
}

// GetAccountByEmail retrieves an account by email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[email]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

// CreateCardToken inserts a vaulted card token.
func (s *Store) CreateCardToken(ctx context.Context, token *model.CardToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token.Token]; ok {
		return repository.ErrTokenExists
	}
	cp := *token
	s.tokens[token.Token] = &cp
	return nil
}

// GetCardToken retrieves a vaulted card token.
func (s *Store) GetCardToken(ctx context.Context, token string) (*model.CardToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

// CreateAuthorization inserts an authorization. The referenced token must exist.
func (s *Store) CreateAuthorization(ctx context.Context, auth *model.Authorization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[auth.Token]; !ok {
		return repository.ErrTokenNotFound
	}
	if _, ok := s.authorizations[auth.ID]; ok {
		return repository.ErrAuthorizationExists
	}
	cp := *auth
	s.authorizations[auth.ID] = &cp
	return nil
}

// GetAuthorization retrieves an authorization by ID.
func (s *Store) GetAuthorization(ctx context.Context, id string) (*model.Authorization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.authorizations[id]
	if !ok {
		return nil, repository.ErrAuthorizationNotFound
	}
	cp := *a
	return &cp, nil
}

// ListAuthorizations returns authorizations newest first.
func (s *Store) ListAuthorizations(ctx context.Context, filter repository.AuthorizationFilter) ([]*model.Authorization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Authorization
	for _, a := range s.authorizations {
		if filter.OwnerEmail != "" && a.OwnerEmail != filter.OwnerEmail {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CaptureAuthorization marks an open authorization captured and stores its transaction.
func (s *Store) CaptureAuthorization(ctx context.Context, id string, txn *model.Transaction) (*model.Authorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.authorizations[id]
	if !ok {
		return nil, repository.ErrAuthorizationNotFound
	}
	if a.Captured {
		return nil, repository.ErrAlreadyCaptured
	}
	if a.Refunded {
		return nil, repository.ErrAlreadyRefunded
	}

	txn.AuthorizationID = a.ID
	txn.Amount = a.Amount
	txn.Fee = a.Fee

	a.Captured = true
	cp := *txn
	s.transactions[a.ID] = &cp

	out := *a
	return &out, nil
}

// RefundAuthorization marks a captured authorization refunded and stores its refund.
func (s *Store) RefundAuthorization(ctx context.Context, id string, refund *model.Refund) (*model.Authorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.authorizations[id]
	if !ok {
		return nil, repository.ErrAuthorizationNotFound
	}
	if !a.Captured {
		return nil, repository.ErrNotCaptured
	}
	if a.Refunded {
		return nil, repository.ErrAlreadyRefunded
	}

	refund.AuthorizationID = a.ID
	refund.Amount = a.Amount

	a.Refunded = true
	cp := *refund
	s.refunds[a.ID] = &cp

	out := *a
	return &out, nil
}

// GetTransactionsByAuthorizationIDs returns transactions keyed by authorization ID.
func (s *Store) GetTransactionsByAuthorizationIDs(ctx context.Context, ids []string) (map[string]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*model.Transaction, len(ids))
	for _, id := range ids {
		if t, ok := s.transactions[id]; ok {
			cp := *t
			out[id] = &cp
		}
	}
	return out, nil
}

// GetRefundsByAuthorizationIDs returns refunds keyed by authorization ID.
func (s *Store) GetRefundsByAuthorizationIDs(ctx context.Context, ids []string) (map[string]*model.Refund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*model.Refund, len(ids))
	for _, id := range ids {
		if r, ok := s.refunds[id]; ok {
			cp := *r
			out[id] = &cp
		}
	}
	return out, nil
}

// CountTransactions returns the number of stored transactions.
func (s *Store) CountTransactions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

// CountAuthorizations returns the number of stored authorizations.
func (s *Store) CountAuthorizations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authorizations)
}

// CountRefunds returns the number of stored refunds.
func (s *Store) CountRefunds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.refunds)
}
