// Package storage is the key-document store behind every partition of the
// note keeper: active notes, trash, tags and settings.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/notekeeper/internal/apperr"
)

// Partition names a collection of documents.
type Partition string

const (
	Notes    Partition = "notes"
	Trash    Partition = "trash"
	Tags     Partition = "tags"
	Settings Partition = "settings"
)

// Valid reports whether p is one of the known partitions.
func (p Partition) Valid() bool {
	switch p {
	case Notes, Trash, Tags, Settings:
		return true
	}
	return false
}

// IDField is the document key holding the identity.
const IDField = "id"

// Document is a decoded JSON record.
type Document map[string]any

// ID returns the document identity, or "" when absent.
func (d Document) ID() string {
	s, _ := d[IDField].(string)
	return s
}

// Patch describes a partial update. Unset removes fields entirely, which is
// different from setting them to a zero value.
type Patch struct {
	Set   map[string]any
	Unset []string
}

// Apply returns a copy of doc with the patch applied. The identity is never changed.
func (p Patch) Apply(doc Document) Document {
	out := make(Document, len(doc)+len(p.Set))
	for k, v := range doc {
		out[k] = v
	}
	for k, v := range p.Set {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	for _, k := range p.Unset {
		if k == IDField {
			continue
		}
		delete(out, k)
	}
	return out
}

// Gateway is the interface for partitioned document storage.
type Gateway interface {
	// GetAll returns every document of p in insertion order.
	GetAll(ctx context.Context, p Partition) ([]Document, error)
	// GetByID returns one document or apperr.ErrNotFound.
	GetByID(ctx context.Context, p Partition, id string) (Document, error)
	// Insert stores doc, assigning a fresh id when it has none, and returns the id.
	// Inserting an id already present in p fails with apperr.ErrAlreadyExists.
	Insert(ctx context.Context, p Partition, doc Document) (string, error)
	// UpdateByID applies patch to an existing document or returns apperr.ErrNotFound.
	UpdateByID(ctx context.Context, p Partition, id string, patch Patch) error
	// DeleteByID removes one document or returns apperr.ErrNotFound.
	DeleteByID(ctx context.Context, p Partition, id string) error
	// DeleteAll removes every document of p and returns how many were removed.
	DeleteAll(ctx context.Context, p Partition) (int, error)
}

// Transactional is implemented by gateways that can run several operations atomically.
type Transactional interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, gw Gateway) error) error
}

// Verify implementations satisfy Gateway at compile time.
var (
	_ Gateway       = (*SQLite)(nil)
	_ Transactional = (*SQLite)(nil)
	_ Gateway       = (*Memory)(nil)
)

func checkPartition(p Partition) error {
	if !p.Valid() {
		return fmt.Errorf("storage: unknown partition %q: %w", p, apperr.ErrValidation)
	}
	return nil
}

// prepareInsert assigns an id when missing and encodes the document body.
func prepareInsert(doc Document) (string, []byte, error) {
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
	}
	out := Patch{Set: map[string]any{}}.Apply(doc)
	out[IDField] = id
	body, err := json.Marshal(out)
	if err != nil {
		return "", nil, fmt.Errorf("storage: encode document: %w", err)
	}
	return id, body, nil
}

func decode(body []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("storage: decode document: %w: %w", apperr.ErrPersistence, err)
	}
	return doc, nil
}

func notFound(p Partition, id string) error {
	return fmt.Errorf("storage: %s/%s: %w", p, id, apperr.ErrNotFound)
}

func persistence(op string, err error) error {
	return fmt.Errorf("storage: %s: %w: %w", op, apperr.ErrPersistence, err)
}
