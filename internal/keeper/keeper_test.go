package keeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/testutil"
)

type answers struct {
	list     []string
	rejected int
}

func (a *answers) Secret(context.Context, models.Note) (string, error) {
	if len(a.list) == 0 {
		return "", apperr.ErrAborted
	}
	s := a.list[0]
	a.list = a.list[1:]
	return s, nil
}

func (a *answers) Rejected(models.Note) { a.rejected++ }

type events struct{ kinds []string }

func (e *events) PublishNoteEvent(kind, _ string) { e.kinds = append(e.kinds, kind) }

func TestLockSearchUnlockScenario(t *testing.T) {
	ctx := context.Background()
	var states []lockgate.State
	ev := &events{}
	svc := New(testutil.TestDB(t),
		WithBcryptCost(bcrypt.MinCost),
		WithLocation(time.UTC),
		WithNotifier(ev),
		WithGateObserver(func(_ models.Note, s lockgate.State) { states = append(states, s) }),
	)

	x, err := svc.Notes.Save(ctx, models.Note{Title: "X marks", Text: "treasure"})
	require.NoError(t, err)
	x, err = svc.Passwords.Lock(ctx, x, "p1")
	require.NoError(t, err)

	stored, err := svc.Notes.Get(ctx, x.ID)
	require.NoError(t, err)
	assert.True(t, stored.Locked())
	assert.NotEqual(t, "p1", stored.Password)

	p := &answers{list: []string{"wrong", "wrong", "p1"}}
	res, err := svc.Search.Search(ctx, "marks", p)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.False(t, res.Hits[0].Locked)
	assert.Equal(t, "treasure", res.Hits[0].Note.Text)
	assert.Equal(t, 2, p.rejected)
	assert.Equal(t, lockgate.Unlocked, states[len(states)-1])

	_, err = svc.Passwords.RemoveLock(ctx, stored)
	require.NoError(t, err)
	open, err := svc.Notes.Get(ctx, x.ID)
	require.NoError(t, err)
	assert.False(t, open.Locked())

	assert.Contains(t, ev.kinds, "note.created")
	assert.Contains(t, ev.kinds, "note.updated")
}

func TestMainPasswordMode(t *testing.T) {
	ctx := context.Background()
	svc := New(testutil.TestDB(t), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, svc.Passwords.SetMainPassword(ctx, "main"))

	n, err := svc.Notes.Save(ctx, models.Note{Title: "t", Text: "x"})
	require.NoError(t, err)
	n, err = svc.Passwords.Lock(ctx, n, "")
	require.NoError(t, err)

	assert.NoError(t, svc.Gate.Check(ctx, n, "main"))
	assert.ErrorIs(t, svc.Gate.Check(ctx, n, "other"), apperr.ErrIncorrectSecret)
}

func TestShareDisabledByDefault(t *testing.T) {
	svc := New(testutil.TestDB(t))
	assert.False(t, svc.Share.Enabled())
}
