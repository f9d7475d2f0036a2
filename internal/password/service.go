// Package password hashes and verifies note secrets, including the optional
// shared main password.
package password

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/models"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// maxSecretLen is the longest input bcrypt accepts.
const maxSecretLen = 72

// NoteStore persists the password field of active notes.
type NoteStore interface {
	SetPassword(ctx context.Context, id, hash string) error
	ClearPassword(ctx context.Context, id string) error
}

// SettingsStore exposes the main password.
type SettingsStore interface {
	Get(ctx context.Context) (models.Settings, error)
	SetMainPassword(ctx context.Context, hash string) error
	ClearMainPassword(ctx context.Context) error
}

// Service locks and unlocks notes.
type Service struct {
	notes    NoteStore
	settings SettingsStore
	cost     int
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCost sets the bcrypt work factor.
func WithCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a password service.
func NewService(notes NoteStore, settings SettingsStore, opts ...Option) *Service {
	s := &Service{notes: notes, settings: settings, cost: DefaultCost, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hash returns the bcrypt hash of secret.
func (s *Service) Hash(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("password: empty secret: %w", apperr.ErrValidation)
	}
	if len(secret) > maxSecretLen {
		return "", fmt.Errorf("password: secret longer than %d bytes: %w", maxSecretLen, apperr.ErrValidation)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(h), nil
}

// Verify reports whether candidate matches hash.
func (s *Service) Verify(candidate, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// Lock protects note. With a main password configured the note receives the
// main hash and secret is ignored.
func (s *Service) Lock(ctx context.Context, note models.Note, secret string) (models.Note, error) {
	if note.Trashed() {
		return models.Note{}, fmt.Errorf("password: lock %s: trashed note: %w", note.ID, apperr.ErrNotFound)
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return models.Note{}, err
	}
	hash := st.MainPassword
	if hash == "" {
		if hash, err = s.Hash(secret); err != nil {
			return models.Note{}, err
		}
	}
	if err := s.notes.SetPassword(ctx, note.ID, hash); err != nil {
		return models.Note{}, fmt.Errorf("password: lock %s: %w", note.ID, err)
	}
	s.logger.Info("password: note locked",
		slog.String("id", note.ID),
		slog.Bool("main_password", st.HasMainPassword()))
	note.Password = hash
	return note, nil
}

// Unlock checks candidate against the note. Notes without a password always
// unlock. A configured main password replaces the per-note hash.
func (s *Service) Unlock(ctx context.Context, note models.Note, candidate string) (bool, error) {
	if !note.Locked() {
		return true, nil
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}
	if st.HasMainPassword() {
		return s.Verify(candidate, st.MainPassword), nil
	}
	return s.Verify(candidate, note.Password), nil
}

// RemoveLock unsets the note's password field.
func (s *Service) RemoveLock(ctx context.Context, note models.Note) (models.Note, error) {
	if err := s.notes.ClearPassword(ctx, note.ID); err != nil {
		return models.Note{}, fmt.Errorf("password: remove lock %s: %w", note.ID, err)
	}
	s.logger.Info("password: lock removed", slog.String("id", note.ID))
	note.Password = ""
	return note, nil
}

// SetMainPassword hashes and stores the shared main password.
func (s *Service) SetMainPassword(ctx context.Context, secret string) error {
	hash, err := s.Hash(secret)
	if err != nil {
		return err
	}
	if err := s.settings.SetMainPassword(ctx, hash); err != nil {
		return err
	}
	s.logger.Info("password: main password set")
	return nil
}

// ClearMainPassword removes the shared main password. Notes locked with it
// keep their hash.
func (s *Service) ClearMainPassword(ctx context.Context) error {
	if err := s.settings.ClearMainPassword(ctx); err != nil {
		return err
	}
	s.logger.Info("password: main password cleared")
	return nil
}
