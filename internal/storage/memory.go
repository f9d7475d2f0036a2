package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/starford/notekeeper/internal/apperr"
)

type memRecord struct {
	id   string
	body []byte
}

// Memory is an in-process Gateway. Records are stored encoded so callers
// never share state with the store.
type Memory struct {
	mu    sync.Mutex
	parts map[Partition][]memRecord
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{parts: make(map[Partition][]memRecord)}
}

func (m *Memory) index(p Partition, id string) int {
	for i, r := range m.parts[p] {
		if r.id == id {
			return i
		}
	}
	return -1
}

// GetAll returns every document of p in insertion order.
func (m *Memory) GetAll(_ context.Context, p Partition) ([]Document, error) {
	if err := checkPartition(p); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Document, 0, len(m.parts[p]))
	for _, r := range m.parts[p] {
		doc, err := decode(r.body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// GetByID returns one document.
func (m *Memory) GetByID(_ context.Context, p Partition, id string) (Document, error) {
	if err := checkPartition(p); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(p, id)
	if i < 0 {
		return nil, notFound(p, id)
	}
	return decode(m.parts[p][i].body)
}

// Insert stores a new document.
func (m *Memory) Insert(_ context.Context, p Partition, doc Document) (string, error) {
	if err := checkPartition(p); err != nil {
		return "", err
	}
	id, body, err := prepareInsert(doc)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index(p, id) >= 0 {
		return "", fmt.Errorf("storage: %s/%s: %w", p, id, apperr.ErrAlreadyExists)
	}
	m.parts[p] = append(m.parts[p], memRecord{id: id, body: body})
	return id, nil
}

// UpdateByID patches one document.
func (m *Memory) UpdateByID(_ context.Context, p Partition, id string, patch Patch) error {
	if err := checkPartition(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(p, id)
	if i < 0 {
		return notFound(p, id)
	}
	doc, err := decode(m.parts[p][i].body)
	if err != nil {
		return err
	}
	_, body, err := prepareInsert(patch.Apply(doc))
	if err != nil {
		return err
	}
	m.parts[p][i].body = body
	return nil
}

// DeleteByID removes one document.
func (m *Memory) DeleteByID(_ context.Context, p Partition, id string) error {
	if err := checkPartition(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(p, id)
	if i < 0 {
		return notFound(p, id)
	}
	m.parts[p] = append(m.parts[p][:i], m.parts[p][i+1:]...)
	return nil
}

// DeleteAll removes every document of p.
func (m *Memory) DeleteAll(_ context.Context, p Partition) (int, error) {
	if err := checkPartition(p); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.parts[p])
	delete(m.parts, p)
	return n, nil
}
