package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncStored is a no-op.
func (n *NoopRecorder) IncStored(collection string) {}

// IncStoreFailed is a no-op.
func (n *NoopRecorder) IncStoreFailed(collection string) {}

// IncRejected is a no-op.
func (n *NoopRecorder) IncRejected(collection string) {}
