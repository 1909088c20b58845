package dto

import (
	"time"

	"github.com/cardvault/gateway/internal/model"
)

// AuthorizeRequest is the body of POST /payments/authorize.
type AuthorizeRequest struct {
	Amount       Amount `json:"amount"`
	PaymentToken string `json:"paymentToken"`
}

// AuthorizeResponse reports the reserved amount and the platform fee.
type AuthorizeResponse struct {
	AuthorizationID string `json:"authorizationId"`
	Amount          int64  `json:"amount"`
	Fee             int64  `json:"fee"`
}

// AuthorizationRequest is the body of capture and refund.
type AuthorizationRequest struct {
	AuthorizationID string `json:"authorizationId"`
}

// CaptureResponse reports the settlement transaction.
type CaptureResponse struct {
	TransactionID string `json:"transactionId"`
	Settled       bool   `json:"settled"`
	NetToMerchant int64  `json:"netToMerchant"`
}

// RefundResponse reports the refund record.
type RefundResponse struct {
	RefundID string `json:"refundId"`
}

// AuthorizationResponse represents an authorization in read endpoints.
type AuthorizationResponse struct {
	ID            string    `json:"id"`
	Amount        int64     `json:"amount"`
	Fee           int64     `json:"fee"`
	NetToMerchant int64     `json:"netToMerchant"`
	PaymentToken  string    `json:"paymentToken"`
	Owner         string    `json:"owner"`
	State         string    `json:"state"`
	TransactionID string    `json:"transactionId,omitempty"`
	RefundID      string    `json:"refundId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AuthorizationListResponse wraps a list of authorizations.
type AuthorizationListResponse struct {
	Data []AuthorizationResponse `json:"data"`
}

// ToAuthorizeResponse converts a new authorization to AuthorizeResponse.
func ToAuthorizeResponse(auth *model.Authorization) *AuthorizeResponse {
	return &AuthorizeResponse{
		AuthorizationID: auth.ID,
		Amount:          auth.Amount,
		Fee:             auth.Fee,
	}
}

// ToAuthorizationResponse converts a detail record to AuthorizationResponse.
func ToAuthorizationResponse(d *model.AuthorizationDetail) AuthorizationResponse {
	a := d.Authorization
	resp := AuthorizationResponse{
		ID:            a.ID,
		Amount:        a.Amount,
		Fee:           a.Fee,
		NetToMerchant: a.NetToMerchant(),
		PaymentToken:  a.Token,
		Owner:         a.OwnerEmail,
		State:         string(a.State()),
		CreatedAt:     a.CreatedAt,
	}
	if d.Transaction != nil {
		resp.TransactionID = d.Transaction.ID
	}
	if d.Refund != nil {
		resp.RefundID = d.Refund.ID
	}
	return resp
}

// ToAuthorizationListResponse converts details to AuthorizationListResponse.
// An empty result encodes as an empty array, never null.
func ToAuthorizationListResponse(details []*model.AuthorizationDetail) *AuthorizationListResponse {
	data := make([]AuthorizationResponse, 0, len(details))
	for _, d := range details {
		data = append(data, ToAuthorizationResponse(d))
	}
	return &AuthorizationListResponse{Data: data}
}
