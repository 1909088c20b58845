package handler

import (
	"log/slog"
	"net/http"

	"github.com/cardvault/gateway/internal/handler/dto"
	"github.com/cardvault/gateway/internal/service"
)

// VaultHandler exchanges card data for tokens.
type VaultHandler struct {
	svc    *service.VaultService
	logger *slog.Logger
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(svc *service.VaultService, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{svc: svc, logger: logger}
}

// Tokenize handles POST /vault/tokenize. The response carries the token only.
func (h *VaultHandler) Tokenize(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.svc.Tokenize(r.Context(), service.TokenizeInput{
		PAN:         req.PAN,
		ExpiryMonth: int(req.ExpMonth),
		ExpiryYear:  int(req.ExpYear),
		CVV:         req.CVV,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenizeResponse{Token: token.Token})
}
