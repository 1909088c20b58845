package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cardvault/gateway/internal/auth"
	"github.com/cardvault/gateway/internal/handler/dto"
	"github.com/cardvault/gateway/internal/service"
)

// PaymentHandler drives the authorization lifecycle.
type PaymentHandler struct {
	svc    *service.LedgerService
	logger *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc *service.LedgerService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, logger: logger}
}

// Authorize handles POST /payments/authorize.
func (h *PaymentHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthorizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	authz, err := h.svc.Authorize(r.Context(), service.AuthorizeInput{
		Amount:       float64(req.Amount),
		PaymentToken: req.PaymentToken,
		Requester:    auth.IdentityFromContext(r.Context()),
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAuthorizeResponse(authz))
}

// Capture handles POST /payments/capture.
func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthorizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.Capture(r.Context(), req.AuthorizationID, auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CaptureResponse{
		TransactionID: result.Transaction.ID,
		Settled:       result.Transaction.Settled,
		NetToMerchant: result.NetToMerchant(),
	})
}

// Refund handles POST /payments/refund.
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req dto.AuthorizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	refund, err := h.svc.Refund(r.Context(), req.AuthorizationID, auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RefundResponse{RefundID: refund.ID})
}

// List handles GET /payments/authorizations.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	details, err := h.svc.List(r.Context(), auth.IdentityFromContext(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAuthorizationListResponse(details))
}

// Get handles GET /payments/authorizations/{id}.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAuthorizationResponse(detail))
}
