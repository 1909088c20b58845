package dto

// TokenizeRequest carries raw card data from the hosted form.
type TokenizeRequest struct {
	PAN      string  `json:"pan"`
	ExpMonth FlexInt `json:"expMonth"`
	ExpYear  FlexInt `json:"expYear"`
	CVV      string  `json:"cvv,omitempty"`
}

// TokenizeResponse only ever exposes the opaque token.
type TokenizeResponse struct {
	Token string `json:"token"`
}
