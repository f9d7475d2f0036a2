// Package lifecycle moves notes between the active and trash partitions.
//
// A created note lives in exactly one partition. Moves insert the copy into
// the destination before deleting the source, so an interrupted move leaves a
// duplicate rather than losing the note. Repeating the move completes it.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/storage"
)

// Event kinds published after successful operations.
const (
	EventCreated  = "note.created"
	EventUpdated  = "note.updated"
	EventTrashed  = "note.trashed"
	EventRestored = "note.restored"
	EventPurged   = "note.purged"
	EventEmptied  = "trash.emptied"
)

// Notifier receives lifecycle events.
type Notifier interface {
	PublishNoteEvent(kind, id string)
}

// Manager owns partition membership and the deletion stamp of notes.
type Manager struct {
	gw       storage.Gateway
	notes    storage.Collection[models.Note]
	trash    storage.Collection[models.Note]
	atomic   bool
	notifier Notifier
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithAtomicMoves runs trash moves in one transaction when the gateway supports it.
func WithAtomicMoves(on bool) Option {
	return func(m *Manager) { m.atomic = on }
}

// WithNotifier sets the event sink.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New creates a manager on top of gw.
func New(gw storage.Gateway, opts ...Option) *Manager {
	m := &Manager{
		gw:     gw,
		notes:  storage.NewCollection[models.Note](gw, storage.Notes),
		trash:  storage.NewCollection[models.Note](gw, storage.Trash),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns an active note.
func (m *Manager) Get(ctx context.Context, id string) (models.Note, error) {
	return m.notes.Get(ctx, id)
}

// List returns every active note in insertion order.
func (m *Manager) List(ctx context.Context) ([]models.Note, error) {
	return m.notes.All(ctx)
}

// GetTrashed returns a note from the trash.
func (m *Manager) GetTrashed(ctx context.Context, id string) (models.Note, error) {
	return m.trash.Get(ctx, id)
}

// ListTrash returns every trashed note.
func (m *Manager) ListTrash(ctx context.Context) ([]models.Note, error) {
	return m.trash.All(ctx)
}

// Save creates note when it has no id, otherwise updates its title, text and
// tags. The password field is never written here.
func (m *Manager) Save(ctx context.Context, note models.Note) (models.Note, error) {
	if err := note.Validate(); err != nil {
		return models.Note{}, fmt.Errorf("lifecycle: save: %w: %w", apperr.ErrValidation, err)
	}
	now := m.now()
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}

	if note.ID != "" {
		err := m.notes.Update(ctx, note.ID, storage.Patch{Set: map[string]any{
			"title":        note.Title,
			"text":         note.Text,
			"tags":         tags,
			"lastModified": now,
		}})
		if err != nil {
			return models.Note{}, fmt.Errorf("lifecycle: update %s: %w", note.ID, err)
		}
		saved, err := m.notes.Get(ctx, note.ID)
		if err != nil {
			return models.Note{}, fmt.Errorf("lifecycle: update %s: %w", note.ID, err)
		}
		m.publish(EventUpdated, saved.ID)
		return saved, nil
	}

	created := models.Note{
		Title:        note.Title,
		Text:         note.Text,
		CreatedAt:    now,
		LastModified: now,
		Tags:         []string{},
	}
	id, err := m.notes.Insert(ctx, created)
	if err != nil {
		return models.Note{}, fmt.Errorf("lifecycle: create: %w", err)
	}
	created.ID = id
	m.logger.Debug("lifecycle: note created", slog.String("id", id))
	m.publish(EventCreated, id)
	return created, nil
}

// MoveToTrash stamps deletedAt and moves the note into the trash. The caller
// must have passed the lock gate.
func (m *Manager) MoveToTrash(ctx context.Context, id string) (models.Note, error) {
	var moved models.Note
	err := m.run(ctx, func(ctx context.Context, gw storage.Gateway) error {
		from, to := m.notes.With(gw), m.trash.With(gw)
		note, err := from.Get(ctx, id)
		if err != nil {
			return err
		}
		now := m.now()
		note.DeletedAt = &now
		if moved, err = m.transfer(ctx, from, to, note); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return models.Note{}, fmt.Errorf("lifecycle: trash %s: %w", id, err)
	}
	m.logger.Info("lifecycle: note trashed", slog.String("id", id))
	m.publish(EventTrashed, id)
	return moved, nil
}

// RestoreFromTrash clears deletedAt and moves the note back to the active partition.
func (m *Manager) RestoreFromTrash(ctx context.Context, id string) (models.Note, error) {
	var restored models.Note
	err := m.run(ctx, func(ctx context.Context, gw storage.Gateway) error {
		from, to := m.trash.With(gw), m.notes.With(gw)
		note, err := from.Get(ctx, id)
		if err != nil {
			return err
		}
		note.DeletedAt = nil
		note.LastModified = m.now()
		if restored, err = m.transfer(ctx, from, to, note); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return models.Note{}, fmt.Errorf("lifecycle: restore %s: %w", id, err)
	}
	m.logger.Info("lifecycle: note restored", slog.String("id", id))
	m.publish(EventRestored, id)
	return restored, nil
}

// Purge permanently deletes a trashed note. Active notes are never touched.
func (m *Manager) Purge(ctx context.Context, id string) error {
	if err := m.trash.Delete(ctx, id); err != nil {
		return fmt.Errorf("lifecycle: purge %s: %w", id, err)
	}
	m.logger.Info("lifecycle: note purged", slog.String("id", id))
	m.publish(EventPurged, id)
	return nil
}

// EmptyTrash purges every trashed note and returns how many were removed.
func (m *Manager) EmptyTrash(ctx context.Context) (int, error) {
	n, err := m.trash.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: empty trash: %w", err)
	}
	m.logger.Info("lifecycle: trash emptied", slog.Int("count", n))
	m.publish(EventEmptied, "")
	return n, nil
}

// SetPassword stores a password hash on an active note.
func (m *Manager) SetPassword(ctx context.Context, id, hash string) error {
	err := m.notes.Update(ctx, id, storage.Patch{Set: map[string]any{"password": hash}})
	if err != nil {
		return fmt.Errorf("lifecycle: set password %s: %w", id, err)
	}
	m.publish(EventUpdated, id)
	return nil
}

// ClearPassword unsets the password field of an active note.
func (m *Manager) ClearPassword(ctx context.Context, id string) error {
	err := m.notes.Update(ctx, id, storage.Patch{Unset: []string{"password"}})
	if err != nil {
		return fmt.Errorf("lifecycle: clear password %s: %w", id, err)
	}
	m.publish(EventUpdated, id)
	return nil
}

// transfer inserts note into to and then deletes it from from. A copy already
// present in to is the trace of an interrupted move and is kept.
func (m *Manager) transfer(ctx context.Context, from, to storage.Collection[models.Note], note models.Note) (models.Note, error) {
	if _, err := to.Insert(ctx, note); err != nil {
		if !errors.Is(err, apperr.ErrAlreadyExists) {
			return models.Note{}, err
		}
		m.logger.Warn("lifecycle: completing interrupted move",
			slog.String("id", note.ID),
			slog.String("to", string(to.Partition())))
		if note, err = to.Get(ctx, note.ID); err != nil {
			return models.Note{}, err
		}
	}
	if err := from.Delete(ctx, note.ID); err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (m *Manager) run(ctx context.Context, fn func(ctx context.Context, gw storage.Gateway) error) error {
	if tx, ok := m.gw.(storage.Transactional); ok && m.atomic {
		return tx.WithTx(ctx, fn)
	}
	return fn(ctx, m.gw)
}

func (m *Manager) publish(kind, id string) {
	if m.notifier != nil {
		m.notifier.PublishNoteEvent(kind, id)
	}
}
