package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection gives typed access to one partition. T must round-trip through
// JSON and expose its identity under the "id" key.
type Collection[T any] struct {
	gw Gateway
	p  Partition
}

// NewCollection binds a typed view to partition p of gw.
func NewCollection[T any](gw Gateway, p Partition) Collection[T] {
	return Collection[T]{gw: gw, p: p}
}

// Partition returns the bound partition.
func (c Collection[T]) Partition() Partition {
	return c.p
}

// With returns the same collection bound to another gateway, typically a transaction.
func (c Collection[T]) With(gw Gateway) Collection[T] {
	return Collection[T]{gw: gw, p: c.p}
}

// All returns every record in insertion order.
func (c Collection[T]) All(ctx context.Context) ([]T, error) {
	docs, err := c.gw.GetAll(ctx, c.p)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := FromDocument[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Get returns the record with the given id.
func (c Collection[T]) Get(ctx context.Context, id string) (T, error) {
	doc, err := c.gw.GetByID(ctx, c.p, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return FromDocument[T](doc)
}

// Insert stores v and returns its id.
func (c Collection[T]) Insert(ctx context.Context, v T) (string, error) {
	doc, err := ToDocument(v)
	if err != nil {
		return "", err
	}
	return c.gw.Insert(ctx, c.p, doc)
}

// Update applies patch to the record with the given id.
func (c Collection[T]) Update(ctx context.Context, id string, patch Patch) error {
	return c.gw.UpdateByID(ctx, c.p, id, patch)
}

// Delete removes the record with the given id.
func (c Collection[T]) Delete(ctx context.Context, id string) error {
	return c.gw.DeleteByID(ctx, c.p, id)
}

// DeleteAll empties the partition.
func (c Collection[T]) DeleteAll(ctx context.Context) (int, error) {
	return c.gw.DeleteAll(ctx, c.p)
}

// ToDocument converts a value into a Document via its JSON encoding.
func ToDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("storage: encode %T: %w", v, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("storage: encode %T: %w", v, err)
	}
	return doc, nil
}

// FromDocument converts a Document back into T.
func FromDocument[T any](doc Document) (T, error) {
	var out T
	data, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("storage: decode %T: %w", out, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("storage: decode %T: %w", out, err)
	}
	return out, nil
}
