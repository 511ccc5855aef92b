package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Document is a stored document together with its identifier.
type Document struct {
	ID     string
	Fields map[string]any
}

// MemoryStore keeps documents in process memory. It is meant for local
// development and tests; contents are lost on restart.
type MemoryStore struct {
	name string

	mu          sync.RWMutex
	collections map[string][]Document
	closed      bool
}

// NewMemory creates an empty MemoryStore.
func NewMemory(name string) *MemoryStore {
	if name == "" {
		name = DriverMemory
	}
	return &MemoryStore{
		name:        name,
		collections: make(map[string][]Document),
	}
}

// Create stores a copy of fields.
func (m *MemoryStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := NewID()
	doc := stamp(fields, time.Now())
	doc["id"] = id

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrNotInitialized
	}
	m.collections[collection] = append(m.collections[collection], Document{ID: id, Fields: doc})

	return id, nil
}

// ListCollections returns collection names in sorted order.
func (m *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// Documents returns the documents stored in a collection, oldest first.
func (m *MemoryStore) Documents(collection string) []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, len(m.collections[collection]))
	copy(docs, m.collections[collection])
	return docs
}

// Name returns the store name.
func (m *MemoryStore) Name() string {
	return m.name
}

// Ping fails once the store is closed.
func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrNotInitialized
	}
	return nil
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
