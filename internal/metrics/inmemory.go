package metrics

import "sync"

// Counts holds the outcome counters of one collection.
type Counts struct {
	Stored      uint64
	StoreFailed uint64
	Rejected    uint64
}

// Snapshot captures current in-memory counters keyed by collection.
type Snapshot map[string]Counts

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu     sync.Mutex
	counts map[string]*Counts
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{counts: make(map[string]*Counts)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := make(Snapshot, len(m.counts))
	for collection, c := range m.counts {
		snap[collection] = *c
	}
	return snap
}

func (m *InMemoryRecorder) update(collection string, fn func(*Counts)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counts[collection]
	if !ok {
		c = &Counts{}
		m.counts[collection] = c
	}
	fn(c)
}

// IncStored increments the stored counter.
func (m *InMemoryRecorder) IncStored(collection string) {
	m.update(collection, func(c *Counts) { c.Stored++ })
}

// IncStoreFailed increments the store failure counter.
func (m *InMemoryRecorder) IncStoreFailed(collection string) {
	m.update(collection, func(c *Counts) { c.StoreFailed++ })
}

// IncRejected increments the validation rejection counter.
func (m *InMemoryRecorder) IncRejected(collection string) {
	m.update(collection, func(c *Counts) { c.Rejected++ })
}
