package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCardTokenized is a no-op.
func (n *NoopRecorder) IncCardTokenized() {}

// IncAuthorizationCreated is a no-op.
func (n *NoopRecorder) IncAuthorizationCreated() {}

// IncAuthorizationRejected is a no-op.
func (n *NoopRecorder) IncAuthorizationRejected(reason string) {}

// IncCaptured is a no-op.
func (n *NoopRecorder) IncCaptured(fee int64) {}

// IncRefunded is a no-op.
func (n *NoopRecorder) IncRefunded() {}

// IncSignup is a no-op.
func (n *NoopRecorder) IncSignup() {}

// IncLoginFailed is a no-op.
func (n *NoopRecorder) IncLoginFailed() {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}
