// Package tags manages tag records and their association with notes.
//
// Notes reference tags by id. Removing a tag leaves those references in place.
package tags

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/storage"
)

// Notes reads and saves active notes.
type Notes interface {
	Get(ctx context.Context, id string) (models.Note, error)
	List(ctx context.Context) ([]models.Note, error)
	Save(ctx context.Context, note models.Note) (models.Note, error)
}

// Gate opens locked notes.
type Gate interface {
	Open(ctx context.Context, note models.Note, p lockgate.Prompter) error
}

// Associator links tags to notes.
type Associator struct {
	tags   storage.Collection[models.Tag]
	notes  Notes
	gate   Gate
	now    func() time.Time
	logger *slog.Logger
}

// NewAssociator creates an associator storing tags in gw.
func NewAssociator(gw storage.Gateway, notes Notes, gate Gate, logger *slog.Logger) *Associator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Associator{
		tags:   storage.NewCollection[models.Tag](gw, storage.Tags),
		notes:  notes,
		gate:   gate,
		now:    time.Now,
		logger: logger,
	}
}

// AddTag creates a tag.
func (a *Associator) AddTag(ctx context.Context, text string) (models.Tag, error) {
	now := a.now()
	tag := models.Tag{Text: strings.TrimSpace(text), CreatedAt: now, LastModified: now}
	if err := tag.Validate(); err != nil {
		return models.Tag{}, fmt.Errorf("tags: add: %w: %w", apperr.ErrValidation, err)
	}
	id, err := a.tags.Insert(ctx, tag)
	if err != nil {
		return models.Tag{}, fmt.Errorf("tags: add: %w", err)
	}
	tag.ID = id
	a.logger.Debug("tags: added", slog.String("id", id))
	return tag, nil
}

// EditTag renames a tag.
func (a *Associator) EditTag(ctx context.Context, id, text string) (models.Tag, error) {
	tag := models.Tag{ID: id, Text: strings.TrimSpace(text)}
	if err := tag.Validate(); err != nil {
		return models.Tag{}, fmt.Errorf("tags: edit: %w: %w", apperr.ErrValidation, err)
	}
	err := a.tags.Update(ctx, id, storage.Patch{Set: map[string]any{
		"text":         tag.Text,
		"lastModified": a.now(),
	}})
	if err != nil {
		return models.Tag{}, fmt.Errorf("tags: edit %s: %w", id, err)
	}
	return a.tags.Get(ctx, id)
}

// RemoveTag deletes a tag. Notes keep referencing its id.
func (a *Associator) RemoveTag(ctx context.Context, id string) error {
	if err := a.tags.Delete(ctx, id); err != nil {
		return fmt.Errorf("tags: remove %s: %w", id, err)
	}
	return nil
}

// ListTags returns every tag.
func (a *Associator) ListTags(ctx context.Context) ([]models.Tag, error) {
	return a.tags.All(ctx)
}

// GetTag returns one tag.
func (a *Associator) GetTag(ctx context.Context, id string) (models.Tag, error) {
	return a.tags.Get(ctx, id)
}

// FindByText returns the first tag whose label equals text, ignoring case
// and surrounding whitespace.
func (a *Associator) FindByText(ctx context.Context, text string) (models.Tag, error) {
	all, err := a.tags.All(ctx)
	if err != nil {
		return models.Tag{}, err
	}
	want := strings.TrimSpace(text)
	for _, t := range all {
		if strings.EqualFold(strings.TrimSpace(t.Text), want) {
			return t, nil
		}
	}
	return models.Tag{}, fmt.Errorf("tags: %q: %w", want, apperr.ErrNotFound)
}

// ApplyTag appends tagID to the note after the note passes the lock gate.
func (a *Associator) ApplyTag(ctx context.Context, noteID, tagID string, p lockgate.Prompter) (models.Note, error) {
	note, err := a.notes.Get(ctx, noteID)
	if err != nil {
		return models.Note{}, fmt.Errorf("tags: apply: %w", err)
	}
	if err := a.gate.Open(ctx, note, p); err != nil {
		return models.Note{}, fmt.Errorf("tags: apply: %w", err)
	}
	if _, err := a.tags.Get(ctx, tagID); err != nil {
		return models.Note{}, fmt.Errorf("tags: apply: %w", err)
	}
	note.Tags = append(note.Tags, tagID)
	saved, err := a.notes.Save(ctx, note)
	if err != nil {
		return models.Note{}, fmt.Errorf("tags: apply: %w", err)
	}
	return saved, nil
}

// FilterByTag returns active notes referencing tagID.
func (a *Associator) FilterByTag(ctx context.Context, tagID string) ([]models.Note, error) {
	all, err := a.notes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Note{}
	for _, n := range all {
		if n.HasTag(tagID) {
			out = append(out, n)
		}
	}
	return out, nil
}
