// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Vault metrics
	IncCardTokenized()

	// Ledger metrics
	IncAuthorizationCreated()
	IncAuthorizationRejected(reason string) // reason: "invalid_amount" or "invalid_token"
	IncCaptured(fee int64)
	IncRefunded()

	// Identity metrics
	IncSignup()
	IncLoginFailed()

	// Ledger event stream
	IncEventPublished(status string) // status: "success" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
