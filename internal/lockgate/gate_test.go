package lockgate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/models"
)

type plainVerifier struct {
	calls int
}

func (v *plainVerifier) Unlock(_ context.Context, note models.Note, candidate string) (bool, error) {
	v.calls++
	if !note.Locked() {
		return true, nil
	}
	return candidate == note.Password, nil
}

// scripted answers with a fixed sequence, then aborts.
type scripted struct {
	answers  []string
	rejected int
}

func (s *scripted) Secret(context.Context, models.Note) (string, error) {
	if len(s.answers) == 0 {
		return "", apperr.ErrAborted
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scripted) Rejected(models.Note) { s.rejected++ }

func TestOpenUnlockedPassesWithoutPrompt(t *testing.T) {
	v := &plainVerifier{}
	p := &scripted{}
	err := New(v).Open(context.Background(), models.Note{ID: "n"}, p)
	require.NoError(t, err)
	assert.Zero(t, v.calls)
}

func TestOpenRetriesUntilCorrect(t *testing.T) {
	var states []State
	g := New(&plainVerifier{}, WithObserver(func(_ models.Note, s State) {
		states = append(states, s)
	}))
	p := &scripted{answers: []string{"wrong", "wrong", "p1"}}

	err := g.Open(context.Background(), models.Note{ID: "x", Password: "p1"}, p)
	require.NoError(t, err)
	assert.Equal(t, 2, p.rejected)
	assert.Equal(t, []State{
		Locked,
		PromptingPassword, Locked,
		PromptingPassword, Locked,
		PromptingPassword, Unlocked,
	}, states)
}

func TestOpenAbortedByPrompter(t *testing.T) {
	g := New(&plainVerifier{})
	p := &scripted{answers: []string{"wrong"}}
	err := g.Open(context.Background(), models.Note{ID: "x", Password: "p1"}, p)
	require.Error(t, err)
	assert.True(t, Aborted(err))
	assert.Equal(t, 1, p.rejected)
}

func TestOpenStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scripted{answers: []string{"p1"}}
	err := New(&plainVerifier{}).Open(ctx, models.Note{ID: "x", Password: "p1"}, p)
	assert.ErrorIs(t, err, apperr.ErrAborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, p.answers, 1, "prompter must not be asked after cancellation")
}

func TestOpenPropagatesVerifierError(t *testing.T) {
	boom := errors.New("boom")
	v := verifierFunc(func(context.Context, models.Note, string) (bool, error) { return false, boom })
	err := New(v).Open(context.Background(), models.Note{ID: "x", Password: "h"}, Once("c"))
	assert.ErrorIs(t, err, boom)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	g := New(&plainVerifier{})
	note := models.Note{ID: "x", Password: "p1"}

	assert.NoError(t, g.Check(ctx, note, "p1"))

	err := g.Check(ctx, note, "")
	assert.ErrorIs(t, err, apperr.ErrLocked)
	assert.NotErrorIs(t, err, apperr.ErrIncorrectSecret)

	err = g.Check(ctx, note, "nope")
	assert.ErrorIs(t, err, apperr.ErrIncorrectSecret)
	assert.True(t, Aborted(err))

	assert.NoError(t, g.Check(ctx, models.Note{ID: "open"}, ""))
}

func TestDeny(t *testing.T) {
	err := New(&plainVerifier{}).Open(context.Background(), models.Note{ID: "x", Password: "p"}, Deny)
	assert.ErrorIs(t, err, apperr.ErrLocked)
	assert.True(t, Aborted(err))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "prompting_password", PromptingPassword.String())
	assert.Equal(t, "state(9)", State(9).String())
}

type verifierFunc func(context.Context, models.Note, string) (bool, error)

func (f verifierFunc) Unlock(ctx context.Context, n models.Note, c string) (bool, error) {
	return f(ctx, n, c)
}

func TestOnceIsPerNote(t *testing.T) {
	ctx := context.Background()
	g := New(&plainVerifier{})
	p := Once("p1")
	assert.NoError(t, g.Open(ctx, models.Note{ID: "a", Password: "p1"}, p))
	assert.NoError(t, g.Open(ctx, models.Note{ID: "b", Password: "p1"}, p))
	err := g.Open(ctx, models.Note{ID: "c", Password: "other"}, p)
	assert.ErrorIs(t, err, apperr.ErrIncorrectSecret)
}
