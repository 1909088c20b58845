package dto

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardvault/gateway/internal/model"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    float64
		wantNaN bool
		wantInf bool
	}{
		{name: "number", body: `{"amount":1000}`, want: 1000},
		{name: "fractional", body: `{"amount":10.5}`, want: 10.5},
		{name: "numeric string", body: `{"amount":"1000"}`, want: 1000},
		{name: "padded string", body: `{"amount":" 75 "}`, want: 75},
		{name: "missing", body: `{}`, want: 0},
		{name: "null", body: `{"amount":null}`, want: 0},
		{name: "word", body: `{"amount":"ten"}`, wantNaN: true},
		{name: "empty string", body: `{"amount":""}`, wantNaN: true},
		{name: "boolean", body: `{"amount":true}`, wantNaN: true},
		{name: "overflow", body: `{"amount":1e400}`, wantInf: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AuthorizeRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			got := float64(req.Amount)
			switch {
			case tt.wantNaN:
				assert.True(t, math.IsNaN(got), "got %v", got)
			case tt.wantInf:
				assert.True(t, math.IsInf(got, 1), "got %v", got)
			default:
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFlexInt_UnmarshalJSON(t *testing.T) {
	var req TokenizeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"pan":"4111","expMonth":"12","expYear":2030}`), &req))
	assert.Equal(t, FlexInt(12), req.ExpMonth)
	assert.Equal(t, FlexInt(2030), req.ExpYear)

	require.NoError(t, json.Unmarshal([]byte(`{"expMonth":"x","expYear":20.5}`), &req))
	assert.Equal(t, FlexInt(0), req.ExpMonth)
	assert.Equal(t, FlexInt(0), req.ExpYear)
}

func TestToAuthorizationResponse(t *testing.T) {
	created := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	detail := &model.AuthorizationDetail{
		Authorization: &model.Authorization{
			ID: "auth_1", Amount: 1000, Fee: 59, Token: "tok_1",
			OwnerEmail: "merchant@x.com", Captured: true, CreatedAt: created,
		},
		Transaction: &model.Transaction{ID: "txn_1"},
	}

	resp := ToAuthorizationResponse(detail)

	assert.Equal(t, "captured", resp.State)
	assert.Equal(t, int64(941), resp.NetToMerchant)
	assert.Equal(t, "txn_1", resp.TransactionID)
	assert.Empty(t, resp.RefundID)

	body, err := json.Marshal(ToAuthorizationListResponse(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(body))
}
