package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cardvault/gateway/internal/auth"
	"github.com/cardvault/gateway/internal/fee"
	"github.com/cardvault/gateway/internal/metrics"
	"github.com/cardvault/gateway/internal/model"
	"github.com/cardvault/gateway/internal/repository/memory"
)

var fastHash = auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type testEnv struct {
	store    *memory.Store
	recorder *metrics.InMemoryRecorder
	sessions *auth.SessionManager
	identity *IdentityService
	vault    *VaultService
	ledger   *LedgerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	recorder := metrics.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := auth.NewSessionManager("test-secret", 2*time.Hour)
	policy := fee.NewPolicy(decimal.RequireFromString("2.9"), 30)

	return &testEnv{
		store:    store,
		recorder: recorder,
		sessions: sessions,
		identity: NewIdentityService(store, sessions, "owner@x.com", recorder, logger).WithHashParams(fastHash),
		vault:    NewVaultService(store, false, recorder, logger),
		ledger:   NewLedgerService(store, store, policy, recorder, logger),
	}
}

func (e *testEnv) tokenize(t *testing.T) string {
	t.Helper()
	tok, err := e.vault.Tokenize(context.Background(), TokenizeInput{
		PAN: "4111111111111111", ExpiryMonth: 12, ExpiryYear: 2030, CVV: "123",
	})
	require.NoError(t, err)
	return tok.Token
}

func (e *testEnv) authorize(t *testing.T, who *model.Identity, amount float64) *model.Authorization {
	t.Helper()
	a, err := e.ledger.Authorize(context.Background(), AuthorizeInput{
		Amount: amount, PaymentToken: e.tokenize(t), Requester: who,
	})
	require.NoError(t, err)
	return a
}

var (
	merchant = &model.Identity{Email: "merchant@x.com", Role: model.RoleMerchant}
	stranger = &model.Identity{Email: "other@x.com", Role: model.RoleMerchant}
	owner    = &model.Identity{Email: "owner@x.com", Role: model.RoleOwner}
)
