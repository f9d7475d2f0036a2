// Package settings persists the singleton preferences record.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/storage"
)

// Store reads and writes the settings record.
type Store struct {
	coll storage.Collection[models.Settings]
}

// NewStore returns a settings store backed by gw.
func NewStore(gw storage.Gateway) *Store {
	return &Store{coll: storage.NewCollection[models.Settings](gw, storage.Settings)}
}

// RecordID is the id of the settings record.
const RecordID = "settings"

// Get returns the stored settings, creating the defaults on first access.
// Concurrent first reads race on the fixed RecordID; the loser re-reads.
func (s *Store) Get(ctx context.Context) (models.Settings, error) {
	all, err := s.coll.All(ctx)
	if err != nil {
		return models.Settings{}, fmt.Errorf("settings: get: %w", err)
	}
	if len(all) > 0 {
		return fill(all[0]), nil
	}
	def := models.DefaultSettings()
	def.ID = RecordID
	_, err = s.coll.Insert(ctx, def)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		cur, err := s.coll.Get(ctx, RecordID)
		if err != nil {
			return models.Settings{}, fmt.Errorf("settings: get: %w", err)
		}
		return fill(cur), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("settings: create defaults: %w", err)
	}
	return def, nil
}

// Update sets one field after validating the value.
func (s *Store) Update(ctx context.Context, f Field, value string) (models.Settings, error) {
	if err := f.Validate(value); err != nil {
		return models.Settings{}, err
	}
	cur, err := s.Get(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if err := s.coll.Update(ctx, cur.ID, storage.Patch{Set: map[string]any{string(f): value}}); err != nil {
		return models.Settings{}, fmt.Errorf("settings: update %s: %w", f, err)
	}
	f.apply(&cur, value)
	return cur, nil
}

// SetMainPassword stores the shared main password hash.
func (s *Store) SetMainPassword(ctx context.Context, hash string) error {
	cur, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if err := s.coll.Update(ctx, cur.ID, storage.Patch{Set: map[string]any{"mainPassword": hash}}); err != nil {
		return fmt.Errorf("settings: set main password: %w", err)
	}
	return nil
}

// ClearMainPassword removes the main password field.
func (s *Store) ClearMainPassword(ctx context.Context) error {
	cur, err := s.Get(ctx)
	if err != nil {
		return err
	}
	if err := s.coll.Update(ctx, cur.ID, storage.Patch{Unset: []string{"mainPassword"}}); err != nil {
		return fmt.Errorf("settings: clear main password: %w", err)
	}
	return nil
}

// fill replaces missing values in records written by older versions.
func fill(s models.Settings) models.Settings {
	def := models.DefaultSettings()
	if s.SortBy == "" {
		s.SortBy = def.SortBy
	}
	if s.SortDirection == "" {
		s.SortDirection = def.SortDirection
	}
	if s.SearchHighlightColor == "" {
		s.SearchHighlightColor = def.SearchHighlightColor
	}
	return s
}
