package password

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/models"
)

type fakeNotes struct {
	hashes map[string]string
}

func (f *fakeNotes) SetPassword(_ context.Context, id, hash string) error {
	if id == "missing" {
		return apperr.ErrNotFound
	}
	f.hashes[id] = hash
	return nil
}

func (f *fakeNotes) ClearPassword(_ context.Context, id string) error {
	delete(f.hashes, id)
	return nil
}

type fakeSettings struct {
	s models.Settings
}

func (f *fakeSettings) Get(context.Context) (models.Settings, error) { return f.s, nil }

func (f *fakeSettings) SetMainPassword(_ context.Context, hash string) error {
	f.s.MainPassword = hash
	return nil
}

func (f *fakeSettings) ClearMainPassword(context.Context) error {
	f.s.MainPassword = ""
	return nil
}

func newTestService() (*Service, *fakeNotes, *fakeSettings) {
	notes := &fakeNotes{hashes: map[string]string{}}
	st := &fakeSettings{s: models.DefaultSettings()}
	return NewService(notes, st, WithCost(bcrypt.MinCost)), notes, st
}

func TestHashAndVerify(t *testing.T) {
	s, _, _ := newTestService()
	h, err := s.Hash("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", h)
	assert.True(t, s.Verify("p1", h))
	assert.False(t, s.Verify("p2", h))
}

func TestHashRejectsBadSecrets(t *testing.T) {
	s, _, _ := newTestService()
	_, err := s.Hash("")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLockPerNoteSecret(t *testing.T) {
	ctx := context.Background()
	s, notes, _ := newTestService()

	locked, err := s.Lock(ctx, models.Note{ID: "n1"}, "p1")
	require.NoError(t, err)
	assert.True(t, locked.Locked())
	assert.Equal(t, locked.Password, notes.hashes["n1"])

	ok, err := s.Unlock(ctx, locked, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Unlock(ctx, locked, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLockUsesMainPassword(t *testing.T) {
	ctx := context.Background()
	s, notes, st := newTestService()
	require.NoError(t, s.SetMainPassword(ctx, "main"))

	locked, err := s.Lock(ctx, models.Note{ID: "n1"}, "")
	require.NoError(t, err)
	assert.Equal(t, st.s.MainPassword, notes.hashes["n1"])

	ok, err := s.Unlock(ctx, locked, "main")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMainPasswordOverridesNoteHash(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService()
	locked, err := s.Lock(ctx, models.Note{ID: "n1"}, "own")
	require.NoError(t, err)
	require.NoError(t, s.SetMainPassword(ctx, "main"))

	ok, _ := s.Unlock(ctx, locked, "own")
	assert.False(t, ok)
	ok, _ = s.Unlock(ctx, locked, "main")
	assert.True(t, ok)

	require.NoError(t, s.ClearMainPassword(ctx))
	ok, _ = s.Unlock(ctx, locked, "own")
	assert.True(t, ok)
}

func TestUnlockWithoutPassword(t *testing.T) {
	s, _, _ := newTestService()
	ok, err := s.Unlock(context.Background(), models.Note{ID: "n1"}, "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockTrashedNote(t *testing.T) {
	s, _, _ := newTestService()
	deleted := time.Now()
	n := models.Note{ID: "n1", DeletedAt: &deleted}
	_, err := s.Lock(context.Background(), n, "p1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRemoveLock(t *testing.T) {
	ctx := context.Background()
	s, notes, _ := newTestService()
	locked, err := s.Lock(ctx, models.Note{ID: "n1"}, "p1")
	require.NoError(t, err)

	open, err := s.RemoveLock(ctx, locked)
	require.NoError(t, err)
	assert.False(t, open.Locked())
	_, present := notes.hashes["n1"]
	assert.False(t, present)
}
