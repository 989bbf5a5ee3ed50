package mocks

import (
	"context"
	"path"
	"sync"
)

// MockSink records what the service writes. Unset funcs succeed; the
// recorded state is safe for the service's parallel writers.
type MockSink struct {
	CheckFunc           func(ctx context.Context) error
	CreateContainerFunc func(ctx context.Context, parentID, name string) (string, error)
	WriteDocumentFunc   func(ctx context.Context, containerID, name string, content []byte) (string, error)

	mu         sync.Mutex
	Containers []string
	Documents  map[string][]byte
}

// Check implements the sink.Sink interface
func (m *MockSink) Check(ctx context.Context) error {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx)
	}
	return nil
}

// CreateContainer implements the sink.Sink interface
func (m *MockSink) CreateContainer(ctx context.Context, parentID, name string) (string, error) {
	if m.CreateContainerFunc != nil {
		if _, err := m.CreateContainerFunc(ctx, parentID, name); err != nil {
			return "", err
		}
	}
	id := path.Join(parentID, name)
	m.mu.Lock()
	m.Containers = append(m.Containers, id)
	m.mu.Unlock()
	return id, nil
}

// WriteDocument implements the sink.Sink interface
func (m *MockSink) WriteDocument(ctx context.Context, containerID, name string, content []byte) (string, error) {
	if m.WriteDocumentFunc != nil {
		if _, err := m.WriteDocumentFunc(ctx, containerID, name, content); err != nil {
			return "", err
		}
	}
	id := path.Join(containerID, name)
	m.mu.Lock()
	if m.Documents == nil {
		m.Documents = make(map[string][]byte)
	}
	m.Documents[id] = content
	m.mu.Unlock()
	return id, nil
}

// DocumentIDs returns a snapshot of the written document IDs.
func (m *MockSink) DocumentIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.Documents))
	for id := range m.Documents {
		ids = append(ids, id)
	}
	return ids
}
