// Package share sends rendered notes to an external destination.
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/render"
)

// ErrDisabled is returned when no sender is configured.
var ErrDisabled = errors.New("sharing is not configured")

// Sender delivers a text message and returns the delivery timestamp.
type Sender interface {
	Send(ctx context.Context, to, body string) (time.Time, error)
}

// Notes reads active notes.
type Notes interface {
	Get(ctx context.Context, id string) (models.Note, error)
}

// Gate opens locked notes.
type Gate interface {
	Open(ctx context.Context, note models.Note, p lockgate.Prompter) error
}

// Sharer gates, renders and sends notes.
type Sharer struct {
	notes   Notes
	gate    Gate
	sender  Sender
	to      string
	printer render.Printer
	logger  *slog.Logger
}

// NewSharer creates a sharer that sends to the destination number to.
// A nil sender disables sharing.
func NewSharer(notes Notes, gate Gate, sender Sender, to string, loc *time.Location, logger *slog.Logger) *Sharer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sharer{
		notes:   notes,
		gate:    gate,
		sender:  sender,
		to:      to,
		printer: render.Printer{Loc: loc},
		logger:  logger,
	}
}

// Enabled reports whether a sender is configured.
func (s *Sharer) Enabled() bool {
	return s.sender != nil
}

// Share sends the plain rendering of a note once it passes the lock gate.
func (s *Sharer) Share(ctx context.Context, noteID string, p lockgate.Prompter) (time.Time, error) {
	if s.sender == nil {
		return time.Time{}, ErrDisabled
	}
	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return time.Time{}, fmt.Errorf("share: %w", err)
	}
	if err := s.gate.Open(ctx, note, p); err != nil {
		return time.Time{}, fmt.Errorf("share: %w", err)
	}
	at, err := s.sender.Send(ctx, s.to, s.printer.Plain(note))
	if err != nil {
		return time.Time{}, fmt.Errorf("share: %w", err)
	}
	s.logger.Info("share: note sent", slog.String("id", note.ID))
	return at, nil
}
