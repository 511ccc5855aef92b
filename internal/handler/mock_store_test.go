package handler

import (
	"context"
	"fmt"
	"sync"
)

// mockStore is a hand-written store.DocumentStore for handler tests.
type mockStore struct {
	mu          sync.Mutex
	name        string
	created     []mockDocument
	collections []string
	createErr   error
	listErr     error
	listPanic   any
	nextID      int
}

type mockDocument struct {
	collection string
	fields     map[string]any
}

func (m *mockStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	m.created = append(m.created, mockDocument{collection: collection, fields: fields})
	return fmt.Sprintf("doc-%d", m.nextID), nil
}

func (m *mockStore) ListCollections(ctx context.Context) ([]string, error) {
	if m.listPanic != nil {
		panic(m.listPanic)
	}
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.collections, nil
}

func (m *mockStore) Name() string                   { return m.name }
func (m *mockStore) Ping(ctx context.Context) error { return nil }
func (m *mockStore) Close() error                   { return nil }

func (m *mockStore) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}
