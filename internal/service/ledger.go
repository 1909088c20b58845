package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cardvault/gateway/internal/events"
	"github.com/cardvault/gateway/internal/fee"
	"github.com/cardvault/gateway/internal/metrics"
	"github.com/cardvault/gateway/internal/model"
	"github.com/cardvault/gateway/internal/repository"
)

// Amount bounds in minor units.
const (
	MinAmount = 50
	MaxAmount = 1_000_000_000_000
)

// Ledger id prefixes.
const (
	AuthorizationPrefix = "auth_"
	TransactionPrefix   = "txn_"
	RefundPrefix        = "rfnd_"
)

// LedgerService runs the authorize, capture and refund state machine.
type LedgerService struct {
	store   LedgerStore
	tokens  TokenStore
	fees    fee.Policy
	metrics metrics.Recorder
	events  events.Sink
	logger  *slog.Logger
	now     func() time.Time
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store LedgerStore, tokens TokenStore, fees fee.Policy, recorder metrics.Recorder, logger *slog.Logger) *LedgerService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		store:   store,
		tokens:  tokens,
		fees:    fees,
		metrics: recorder,
		events:  events.Discard{},
		logger:  logger,
		now:     time.Now,
	}
}

// WithEvents publishes lifecycle events to sink after each committed step.
func (s *LedgerService) WithEvents(sink events.Sink) *LedgerService {
	if sink != nil {
		s.events = sink
	}
	return s
}

// ValidateAmount converts a requested amount to minor units. It must be a
// finite whole number between MinAmount and MaxAmount.
func ValidateAmount(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	if v < MinAmount || v > MaxAmount || v != math.Trunc(v) {
		return 0, ErrInvalidAmount
	}
	return int64(v), nil
}

// AuthorizeInput defines input for creating an authorization.
type AuthorizeInput struct {
	Amount       float64
	PaymentToken string
	Requester    *model.Identity
}

// Authorize reserves amount against a vaulted token and prices the platform fee.
func (s *LedgerService) Authorize(ctx context.Context, in AuthorizeInput) (*model.Authorization, error) {
	if in.Requester == nil {
		return nil, ErrUnauthenticated
	}

	amount, err := ValidateAmount(in.Amount)
	if err != nil {
		s.metrics.IncAuthorizationRejected("invalid_amount")
		return nil, err
	}

	if in.PaymentToken == "" {
		s.metrics.IncAuthorizationRejected("invalid_token")
		return nil, ErrInvalidToken
	}
	if _, err := s.tokens.GetCardToken(ctx, in.PaymentToken); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			s.metrics.IncAuthorizationRejected("invalid_token")
			return nil, ErrInvalidToken
		}
		return nil, storageError("failed to load card token", err)
	}

	auth := &model.Authorization{
		ID:         AuthorizationPrefix + ulid.Make().String(),
		Amount:     amount,
		Token:      in.PaymentToken,
		OwnerEmail: in.Requester.Email,
		Fee:        s.fees.Compute(in.Requester.Role, amount),
		CreatedAt:  s.now().UTC(),
	}

	if err := s.store.CreateAuthorization(ctx, auth); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			s.metrics.IncAuthorizationRejected("invalid_token")
			return nil, ErrInvalidToken
		}
		return nil, storageError("failed to create authorization", err)
	}

	s.metrics.IncAuthorizationCreated()
	e := events.NewEvent(events.TypeAuthorizationCreated, auth.CreatedAt)
	e.AuthorizationID, e.RecordID, e.Owner = auth.ID, auth.Token, auth.OwnerEmail
	e.Amount, e.Fee = auth.Amount, auth.Fee
	s.events.PublishAsync(e)
	s.logger.Info("authorization_created",
		"authorization_id", auth.ID,
		"amount", auth.Amount,
		"fee", auth.Fee,
	)
	return auth, nil
}

// CaptureResult is the outcome of a successful capture.
type CaptureResult struct {
	Authorization *model.Authorization
	Transaction   *model.Transaction
}

// NetToMerchant is the captured amount minus the platform fee.
func (r *CaptureResult) NetToMerchant() int64 {
	return r.Transaction.Amount - r.Transaction.Fee
}

// Capture settles an open authorization. Amount and fee come from the stored
// authorization, never from the caller. At most one capture ever succeeds
// per authorization, also under concurrent calls.
func (s *LedgerService) Capture(ctx context.Context, authorizationID string, requester *model.Identity) (*CaptureResult, error) {
	if _, err := s.visibleAuthorization(ctx, authorizationID, requester); err != nil {
		return nil, err
	}

	txn := &model.Transaction{
		ID:        TransactionPrefix + ulid.Make().String(),
		Settled:   true,
		CreatedAt: s.now().UTC(),
	}

	auth, err := s.store.CaptureAuthorization(ctx, authorizationID, txn)
	if err != nil {
		return nil, mapLedgerError("failed to capture authorization", err)
	}

	s.metrics.IncCaptured(txn.Fee)
	e := events.NewEvent(events.TypeAuthorizationCaptured, txn.CreatedAt)
	e.AuthorizationID, e.RecordID, e.Owner = auth.ID, txn.ID, auth.OwnerEmail
	e.Amount, e.Fee = txn.Amount, txn.Fee
	s.events.PublishAsync(e)
	s.logger.Info("authorization_captured",
		"authorization_id", auth.ID,
		"transaction_id", txn.ID,
		"amount", txn.Amount,
		"fee", txn.Fee,
	)
	return &CaptureResult{Authorization: auth, Transaction: txn}, nil
}

// Refund reverses the full amount of a captured authorization, once.
func (s *LedgerService) Refund(ctx context.Context, authorizationID string, requester *model.Identity) (*model.Refund, error) {
	if _, err := s.visibleAuthorization(ctx, authorizationID, requester); err != nil {
		return nil, err
	}

	refund := &model.Refund{
		ID:        RefundPrefix + ulid.Make().String(),
		CreatedAt: s.now().UTC(),
	}

	auth, err := s.store.RefundAuthorization(ctx, authorizationID, refund)
	if err != nil {
		return nil, mapLedgerError("failed to refund authorization", err)
	}

	s.metrics.IncRefunded()
	e := events.NewEvent(events.TypeAuthorizationRefunded, refund.CreatedAt)
	e.AuthorizationID, e.RecordID, e.Owner = auth.ID, refund.ID, auth.OwnerEmail
	e.Amount = refund.Amount
	s.events.PublishAsync(e)
	s.logger.Info("authorization_refunded",
		"authorization_id", auth.ID,
		"refund_id", refund.ID,
		"amount", refund.Amount,
	)
	return refund, nil
}

// Get returns one authorization with its settlement records.
func (s *LedgerService) Get(ctx context.Context, authorizationID string, requester *model.Identity) (*model.AuthorizationDetail, error) {
	auth, err := s.visibleAuthorization(ctx, authorizationID, requester)
	if err != nil {
		return nil, err
	}

	details, err := s.attachRecords(ctx, []*model.Authorization{auth})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// List returns the requester's authorizations newest first. The owner sees all of them.
func (s *LedgerService) List(ctx context.Context, requester *model.Identity, limit int) ([]*model.AuthorizationDetail, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}

	filter := repository.AuthorizationFilter{Limit: limit}
	if !requester.IsOwner() {
		filter.OwnerEmail = requester.Email
	}

	auths, err := s.store.ListAuthorizations(ctx, filter)
	if err != nil {
		return nil, storageError("failed to list authorizations", err)
	}

	return s.attachRecords(ctx, auths)
}

// visibleAuthorization loads an authorization and hides it from requesters
// that neither created it nor hold the owner role.
func (s *LedgerService) visibleAuthorization(ctx context.Context, id string, requester *model.Identity) (*model.Authorization, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	if id == "" {
		return nil, ErrAuthorizationNotFound
	}

	auth, err := s.store.GetAuthorization(ctx, id)
	if err != nil {
		return nil, mapLedgerError("failed to load authorization", err)
	}
	if !auth.VisibleTo(requester) {
		return nil, ErrAuthorizationNotFound
	}
	return auth, nil
}

func (s *LedgerService) attachRecords(ctx context.Context, auths []*model.Authorization) ([]*model.AuthorizationDetail, error) {
	details := make([]*model.AuthorizationDetail, 0, len(auths))
	if len(auths) == 0 {
		return details, nil
	}

	ids := make([]string, 0, len(auths))
	for _, a := range auths {
		ids = append(ids, a.ID)
	}

	txns, err := s.store.GetTransactionsByAuthorizationIDs(ctx, ids)
	if err != nil {
		return nil, storageError("failed to load transactions", err)
	}
	refunds, err := s.store.GetRefundsByAuthorizationIDs(ctx, ids)
	if err != nil {
		return nil, storageError("failed to load refunds", err)
	}

	for _, a := range auths {
		details = append(details, &model.AuthorizationDetail{
			Authorization: a,
			Transaction:   txns[a.ID],
			Refund:        refunds[a.ID],
		})
	}
	return details, nil
}

// mapLedgerError translates repository errors into service errors.
func mapLedgerError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrAuthorizationNotFound):
		return ErrAuthorizationNotFound
	case errors.Is(err, repository.ErrAlreadyCaptured):
		return ErrAlreadyCaptured
	case errors.Is(err, repository.ErrAlreadyRefunded):
		return ErrAlreadyRefunded
	case errors.Is(err, repository.ErrNotCaptured):
		return ErrNotCaptured
	default:
		return storageError(op, err)
	}
}
