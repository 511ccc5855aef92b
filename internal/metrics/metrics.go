// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures submission outcomes per collection.
type Recorder interface {
	IncStored(collection string)
	IncStoreFailed(collection string)
	IncRejected(collection string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
