// Package lockgate mediates access to the content of password protected notes.
//
// A locked note is opened by repeatedly asking a Prompter for a candidate
// secret until one verifies. There is no attempt limit; the loop ends when
// the prompter returns apperr.ErrAborted or the context is cancelled.
package lockgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/models"
)

// State is the position of one access attempt.
type State int

const (
	Locked State = iota
	PromptingPassword
	Unlocked
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case PromptingPassword:
		return "prompting_password"
	case Unlocked:
		return "unlocked"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Verifier checks a candidate secret for a note.
type Verifier interface {
	Unlock(ctx context.Context, note models.Note, candidate string) (bool, error)
}

// Prompter supplies candidate secrets.
type Prompter interface {
	// Secret returns the next candidate. Returning apperr.ErrAborted ends the attempt.
	Secret(ctx context.Context, note models.Note) (string, error)
	// Rejected is called after a candidate failed verification.
	Rejected(note models.Note)
}

// Observer receives every state transition.
type Observer func(note models.Note, s State)

// Gate runs the unlock loop.
type Gate struct {
	verifier Verifier
	observe  Observer
	logger   *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithObserver registers a transition observer.
func WithObserver(o Observer) Option {
	return func(g *Gate) { g.observe = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// New creates a gate that verifies candidates with v.
func New(v Verifier, opts ...Option) *Gate {
	g := &Gate{verifier: v, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Open returns nil once note may be revealed. Unlocked notes pass at once.
func (g *Gate) Open(ctx context.Context, note models.Note, p Prompter) error {
	if !note.Locked() {
		g.enter(note, Unlocked)
		return nil
	}
	g.enter(note, Locked)
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("lockgate: %s: %w: %w", note.ID, apperr.ErrAborted, err)
		}
		g.enter(note, PromptingPassword)
		candidate, err := p.Secret(ctx, note)
		if err != nil {
			g.enter(note, Locked)
			return fmt.Errorf("lockgate: %s: %w", note.ID, err)
		}
		ok, err := g.verifier.Unlock(ctx, note, candidate)
		if err != nil {
			g.enter(note, Locked)
			return fmt.Errorf("lockgate: %s: %w", note.ID, err)
		}
		if ok {
			g.enter(note, Unlocked)
			return nil
		}
		g.enter(note, Locked)
		g.logger.Debug("lockgate: incorrect password", slog.String("id", note.ID))
		p.Rejected(note)
	}
}

// Check makes a single attempt with candidate. It returns apperr.ErrLocked
// when no candidate is given and apperr.ErrIncorrectSecret on mismatch.
func (g *Gate) Check(ctx context.Context, note models.Note, candidate string) error {
	return g.Open(ctx, note, Once(candidate))
}

func (g *Gate) enter(note models.Note, s State) {
	if g.observe != nil {
		g.observe(note, s)
	}
}

// Aborted reports whether err ended an unlock attempt without success.
func Aborted(err error) bool {
	return errors.Is(err, apperr.ErrAborted)
}
