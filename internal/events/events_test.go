package events

import (
	"strings"
	"testing"
	"time"
)

func TestEvent_RoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2030, 12, 1, 10, 0, 0, 0, time.UTC)
	e := NewEvent(TypeAuthorizationCaptured, at)
	e.AuthorizationID = "auth_01"
	e.RecordID = "txn_01"
	e.Amount = 1000
	e.Fee = 59

	payload, err := e.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != e {
		t.Errorf("Decode() = %+v, want %+v", got, e)
	}
	if got.OccurredAt != at.UnixMilli() {
		t.Errorf("OccurredAt = %d", got.OccurredAt)
	}
}

func TestEvent_OmitsEmptyFields(t *testing.T) {
	t.Parallel()

	payload, err := NewEvent(TypeCardTokenized, time.Unix(0, 0)).Encode()
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"aid"`, `"amt"`, `"fee"`, `"own"`} {
		if strings.Contains(payload, key) {
			t.Errorf("payload %s should omit %s", payload, key)
		}
	}
}

func TestDecode_Rejects(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"", "{", `{"t":1}`} {
		if _, err := Decode(payload); err == nil {
			t.Errorf("Decode(%q) should fail", payload)
		}
	}
}
