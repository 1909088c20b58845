package metrics

import (
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CardsTokenized                 uint64
	AuthorizationsCreated          uint64
	AuthorizationsRejectedAmount   uint64
	AuthorizationsRejectedToken    uint64
	AuthorizationsRejectedOther    uint64
	Captures                       uint64
	Refunds                        uint64
	PlatformFeesCapturedMinorUnits int64
	Signups                        uint64
	LoginsFailed                   uint64
	EventsPublished                uint64
	EventsDropped                  uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	cardsTokenized        uint64
	authorizationsCreated uint64
	rejectedAmount        uint64
	rejectedToken         uint64
	rejectedOther         uint64
	captures              uint64
	refunds               uint64
	feesCaptured          int64
	signups               uint64
	loginsFailed          uint64
	eventsPublished       uint64
	eventsDropped         uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		CardsTokenized:                 atomic.LoadUint64(&m.cardsTokenized),
		AuthorizationsCreated:          atomic.LoadUint64(&m.authorizationsCreated),
		AuthorizationsRejectedAmount:   atomic.LoadUint64(&m.rejectedAmount),
		AuthorizationsRejectedToken:    atomic.LoadUint64(&m.rejectedToken),
		AuthorizationsRejectedOther:    atomic.LoadUint64(&m.rejectedOther),
		Captures:                       atomic.LoadUint64(&m.captures),
		Refunds:                        atomic.LoadUint64(&m.refunds),
		PlatformFeesCapturedMinorUnits: atomic.LoadInt64(&m.feesCaptured),
		Signups:                        atomic.LoadUint64(&m.signups),
		LoginsFailed:                   atomic.LoadUint64(&m.loginsFailed),
		EventsPublished:                atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:                  atomic.LoadUint64(&m.eventsDropped),
	}
}

// IncCardTokenized increments the tokenized card counter.
func (m *InMemoryRecorder) IncCardTokenized() {
	atomic.AddUint64(&m.cardsTokenized, 1)
}

// IncAuthorizationCreated increments the authorization counter.
func (m *InMemoryRecorder) IncAuthorizationCreated() {
	atomic.AddUint64(&m.authorizationsCreated, 1)
}

// IncAuthorizationRejected increments the rejection counter for the reason.
func (m *InMemoryRecorder) IncAuthorizationRejected(reason string) {
	switch reason {
	case "invalid_amount":
		atomic.AddUint64(&m.rejectedAmount, 1)
	case "invalid_token":
		atomic.AddUint64(&m.rejectedToken, 1)
	default:
		atomic.AddUint64(&m.rejectedOther, 1)
	}
}

// IncCaptured increments the capture counter and adds the retained fee.
func (m *InMemoryRecorder) IncCaptured(fee int64) {
	atomic.AddUint64(&m.captures, 1)
	atomic.AddInt64(&m.feesCaptured, fee)
}

// IncRefunded increments the refund counter.
func (m *InMemoryRecorder) IncRefunded() {
	atomic.AddUint64(&m.refunds, 1)
}

// IncSignup increments the signup counter.
func (m *InMemoryRecorder) IncSignup() {
	atomic.AddUint64(&m.signups, 1)
}

// IncLoginFailed increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailed() {
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncEventPublished counts ledger events by publish outcome.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.eventsPublished, 1)
		return
	}
	atomic.AddUint64(&m.eventsDropped, 1)
}
