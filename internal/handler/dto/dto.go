// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// OKResponse is the body of endpoints that only report success.
type OKResponse struct {
	OK bool `json:"ok"`
}

// Amount accepts a JSON number or a numeric string. Values that cannot be
// parsed become NaN so that amount validation rejects them.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}
	*a = Amount(parseNumber(raw))
	return nil
}

// FlexInt accepts a JSON integer or a numeric string. Anything else becomes zero.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	v := parseNumber(bytes.TrimSpace(data))
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		*n = 0
		return nil
	}
	*n = FlexInt(v)
	return nil
}

func parseNumber(raw []byte) float64 {
	s := string(raw)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	if s == "" || s == "null" {
		return math.NaN()
	}
	// ParseFloat reports overflow as ±Inf together with ErrRange, which
	// validation rejects as non-finite.
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
