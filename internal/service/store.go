package service

import (
	"context"

	"github.com/cardvault/gateway/internal/model"
	"github.com/cardvault/gateway/internal/repository"
)

// AccountStore persists accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
}

// TokenStore persists vaulted card tokens.
type TokenStore interface {
	CreateCardToken(ctx context.Context, token *model.CardToken) error
	GetCardToken(ctx context.Context, token string) (*model.CardToken, error)
}

// LedgerStore persists authorizations and their settlement records.
//
// CaptureAuthorization and RefundAuthorization are conditional writes: the
// flag check and the flag flip happen atomically together with the insert of
// the transaction or refund row, so at most one of each exists per authorization.
type LedgerStore interface {
	CreateAuthorization(ctx context.Context, auth *model.Authorization) error
	GetAuthorization(ctx context.Context, id string) (*model.Authorization, error)
	ListAuthorizations(ctx context.Context, filter repository.AuthorizationFilter) ([]*model.Authorization, error)

	// CaptureAuthorization fills txn.Amount and txn.Fee from the stored authorization.
	CaptureAuthorization(ctx context.Context, id string, txn *model.Transaction) (*model.Authorization, error)
	// RefundAuthorization fills refund.Amount from the stored authorization.
	RefundAuthorization(ctx context.Context, id string, refund *model.Refund) (*model.Authorization, error)

	GetTransactionsByAuthorizationIDs(ctx context.Context, ids []string) (map[string]*model.Transaction, error)
	GetRefundsByAuthorizationIDs(ctx context.Context, ids []string) (map[string]*model.Refund, error)
}

// Store is the full persistence surface, implemented by the Postgres
// repository and the in-memory store.
type Store interface {
	AccountStore
	TokenStore
	LedgerStore
	Ping(ctx context.Context) error
	Close()
}
