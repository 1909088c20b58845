package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cardvault/gateway/internal/card"
	"github.com/cardvault/gateway/internal/events"
	"github.com/cardvault/gateway/internal/metrics"
	"github.com/cardvault/gateway/internal/model"
	"github.com/cardvault/gateway/internal/repository"
)

// TokenPrefix starts every vault token.
const TokenPrefix = "tok_"

// VaultService exchanges card data for opaque tokens. Only the last four
// digits, the brand and the expiry are kept; the rest is dropped on return.
type VaultService struct {
	tokens   TokenStore
	validate bool
	metrics  metrics.Recorder
	events   events.Sink
	logger   *slog.Logger
	now      func() time.Time
}

// NewVaultService creates a new VaultService. When validate is set the
// number is Luhn-checked and the expiry must not be in the past.
func NewVaultService(tokens TokenStore, validate bool, recorder metrics.Recorder, logger *slog.Logger) *VaultService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VaultService{
		tokens:   tokens,
		validate: validate,
		metrics:  recorder,
		events:   events.Discard{},
		logger:   logger,
		now:      time.Now,
	}
}

// WithEvents publishes a card_tokenized event for every new token.
func (s *VaultService) WithEvents(sink events.Sink) *VaultService {
	if sink != nil {
		s.events = sink
	}
	return s
}

// TokenizeInput is raw card data from the hosted form.
type TokenizeInput struct {
	PAN         string
	ExpiryMonth int
	ExpiryYear  int
	CVV         string // accepted, never stored
}

// Tokenize stores a masked card record and returns its token.
func (s *VaultService) Tokenize(ctx context.Context, in TokenizeInput) (*model.CardToken, error) {
	pan := card.Normalize(in.PAN)
	if pan == "" || in.ExpiryMonth == 0 || in.ExpiryYear == 0 {
		return nil, ErrMissingFields
	}

	if s.validate {
		if err := card.ValidateNumber(pan); err != nil {
			return nil, &Error{Kind: KindValidation, Code: ErrInvalidCard.Code, Message: ErrInvalidCard.Message, Err: err}
		}
		if err := card.ValidateExpiry(in.ExpiryMonth, in.ExpiryYear, s.now()); err != nil {
			return nil, &Error{Kind: KindValidation, Code: ErrInvalidCard.Code, Message: ErrInvalidCard.Message, Err: err}
		}
	}

	token := &model.CardToken{
		Token:       TokenPrefix + uuid.NewString(),
		Last4:       card.Last4(pan),
		Brand:       card.Brand(pan),
		ExpiryMonth: in.ExpiryMonth,
		ExpiryYear:  in.ExpiryYear,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.tokens.CreateCardToken(ctx, token); err != nil {
		if errors.Is(err, repository.ErrTokenExists) {
			return nil, storageError("token collision", err)
		}
		return nil, storageError("failed to store card token", err)
	}

	s.metrics.IncCardTokenized()
	e := events.NewEvent(events.TypeCardTokenized, token.CreatedAt)
	e.RecordID = token.Token
	s.events.PublishAsync(e)
	s.logger.Info("card_tokenized", "token", token.Token, "brand", token.Brand)
	return token, nil
}
