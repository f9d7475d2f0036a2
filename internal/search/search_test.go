package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/render"
)

type staticNotes []models.Note

func (s staticNotes) List(context.Context) ([]models.Note, error) { return s, nil }

type staticSettings models.Settings

func (s staticSettings) Get(context.Context) (models.Settings, error) { return models.Settings(s), nil }

// equalVerifier treats the stored password as the plain secret.
type equalVerifier struct{}

func (equalVerifier) Unlock(_ context.Context, n models.Note, c string) (bool, error) {
	return !n.Locked() || n.Password == c, nil
}

type answers struct {
	list     []string
	asked    int
	rejected int
}

func (a *answers) Secret(context.Context, models.Note) (string, error) {
	a.asked++
	if len(a.list) == 0 {
		return "", apperr.ErrAborted
	}
	s := a.list[0]
	a.list = a.list[1:]
	return s, nil
}

func (a *answers) Rejected(models.Note) { a.rejected++ }

func day(d, m int) time.Time {
	return time.Date(2024, time.Month(m), d, 12, 0, 0, 0, time.UTC)
}

func newEngine(notes ...models.Note) *Engine {
	st := models.DefaultSettings()
	return NewEngine(staticNotes(notes), staticSettings(st), lockgate.New(equalVerifier{}), WithLocation(time.UTC))
}

func TestIsDateQuery(t *testing.T) {
	for q, want := range map[string]bool{
		"5.3.2024":    true,
		"05.03.2024":  true,
		" 5.3.2024 ":  true,
		"5.3.24":      false,
		"123.3.2024":  false,
		"on 5.3.2024": false,
		"groceries":   false,
	} {
		assert.Equal(t, want, IsDateQuery(q), q)
	}
}

func TestHighlightAllOccurrences(t *testing.T) {
	on := render.Bright + render.Red
	got := Highlight("ababab", "ab", models.ColorRed)
	assert.Equal(t, strings.Repeat(on+"ab"+render.Reset, 3), got)

	spans := Occurrences("ababab", "ab")
	assert.Equal(t, []Span{{0, 2}, {2, 4}, {4, 6}}, spans)
	for i, sp := range spans {
		at := sp.Start + i*MarkerLen(models.ColorRed)
		assert.Equal(t, on+"ab", got[at:at+len(on)+2])
	}
}

func TestHighlightCaseInsensitiveKeepsOriginalCase(t *testing.T) {
	got := Highlight("Go go GO", "go", models.ColorCyan)
	on := render.Bright + render.Cyan
	assert.Equal(t, on+"Go"+render.Reset+" "+on+"go"+render.Reset+" "+on+"GO"+render.Reset, got)
	assert.Equal(t, "plain", Highlight("plain", "zzz", models.ColorCyan))
	assert.Equal(t, "plain", Highlight("plain", "", models.ColorCyan))
}

func TestSortStable(t *testing.T) {
	notes := []models.Note{
		{ID: "1", Title: "b"},
		{ID: "2", Title: "a"},
		{ID: "3", Title: "a"},
	}
	asc := SortNotesBy(notes, models.SortByTitle, models.Asc)
	assert.Equal(t, []string{"2", "3", "1"}, ids(asc))

	desc := SortNotesBy(notes, models.SortByTitle, "")
	assert.Equal(t, []string{"1", "2", "3"}, ids(desc))

	assert.Equal(t, "1", notes[0].ID, "input must not be reordered")
}

func TestSortByCreatedAt(t *testing.T) {
	notes := []models.Note{
		{ID: "old", CreatedAt: day(1, 1)},
		{ID: "new", CreatedAt: day(2, 1)},
	}
	assert.Equal(t, []string{"new", "old"}, ids(SortNotesBy(notes, models.SortByCreatedAt, models.Desc)))
	assert.Equal(t, []string{"old", "new"}, ids(SortNotesBy(notes, models.SortByCreatedAt, models.Asc)))
}

func TestTitleMatchSuppressesBodySearch(t *testing.T) {
	e := newEngine(
		models.Note{ID: "title", Title: "Groceries", Text: "milk", CreatedAt: day(1, 1)},
		models.Note{ID: "body", Title: "Todo", Text: "buy groceries", CreatedAt: day(2, 1)},
	)
	res, err := e.Search(context.Background(), "grocer", lockgate.Deny)
	require.NoError(t, err)
	assert.Equal(t, ModeTitle, res.Mode)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "title", res.Hits[0].Note.ID)
	assert.Equal(t, []Span{{0, 6}}, res.Hits[0].Spans)
}

func TestBodySearchWhenNoTitleMatches(t *testing.T) {
	e := newEngine(
		models.Note{ID: "a", Title: "one", Text: `x\nneedle`, CreatedAt: day(1, 1)},
		models.Note{ID: "b", Title: "two", Text: "hay", CreatedAt: day(2, 1)},
	)
	res, err := e.Search(context.Background(), "NEEDLE", lockgate.Deny)
	require.NoError(t, err)
	assert.Equal(t, ModeText, res.Mode)
	require.Len(t, res.Hits, 1)
	assert.Contains(t, res.Hits[0].Highlighted, render.Bright+render.Red+"needle"+render.Reset)
}

func TestInvalidExpressionMatchesLiterally(t *testing.T) {
	e := newEngine(models.Note{ID: "a", Title: "c++ (draft", Text: "x"})
	res, err := e.Search(context.Background(), "c++ (", lockgate.Deny)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "a", res.Hits[0].Note.ID)
}

func TestEmptyMatchCountsAsHit(t *testing.T) {
	e := newEngine(
		models.Note{ID: "a", Title: "alpha", Text: "x"},
		models.Note{ID: "b", Title: "beta", Text: "y"},
	)
	res, err := e.Search(context.Background(), "z*", lockgate.Deny)
	require.NoError(t, err)
	assert.Equal(t, ModeTitle, res.Mode)
	require.Len(t, res.Hits, 2)
	for _, h := range res.Hits {
		assert.Empty(t, h.Spans)
		assert.Equal(t, h.Note.Title, h.Highlighted)
	}
}

func TestLockedTextHitRetriesUntilCorrect(t *testing.T) {
	e := newEngine(models.Note{ID: "x", Title: "secret plans", Text: "body", Password: "p1"})
	p := &answers{list: []string{"wrong", "wrong", "p1"}}

	res, err := e.Search(context.Background(), "secret", p)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	hit := res.Hits[0]
	assert.False(t, hit.Locked)
	assert.Equal(t, "body", hit.Note.Text)
	assert.Empty(t, hit.Note.Password)
	assert.Equal(t, 3, p.asked)
	assert.Equal(t, 2, p.rejected)
}

func TestLockedTextHitAborted(t *testing.T) {
	e := newEngine(models.Note{ID: "x", Title: "secret", Text: "body", Password: "p1"})
	res, err := e.Search(context.Background(), "secret", lockgate.Deny)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.True(t, res.Hits[0].Locked)
	assert.Empty(t, res.Hits[0].Note.Text)
	assert.Empty(t, res.Hits[0].Highlighted)
}

func TestDateSearchDoesNotPrompt(t *testing.T) {
	e := newEngine(
		models.Note{ID: "open", Title: "a", Text: "x", CreatedAt: day(5, 3)},
		models.Note{ID: "locked", Title: "b", Text: "y", Password: "p", CreatedAt: day(5, 3)},
		models.Note{ID: "other", Title: "c", Text: "z", CreatedAt: day(6, 3)},
	)
	p := &answers{list: []string{"p"}}
	res, err := e.Search(context.Background(), "5.3.2024", p)
	require.NoError(t, err)
	assert.Equal(t, ModeDate, res.Mode)
	assert.Zero(t, p.asked)
	require.Len(t, res.Hits, 2)

	byID := map[string]Hit{}
	for _, h := range res.Hits {
		byID[h.Note.ID] = h
	}
	assert.False(t, byID["open"].Locked)
	assert.Equal(t, "x", byID["open"].Note.Text)
	assert.True(t, byID["locked"].Locked)
	assert.Empty(t, byID["locked"].Note.Text)
}

func TestDateSearchUsesLocation(t *testing.T) {
	late := time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC)
	st := models.DefaultSettings()
	east := time.FixedZone("east", 3*3600)
	e := NewEngine(staticNotes{{ID: "n", Title: "t", Text: "x", CreatedAt: late}}, staticSettings(st),
		lockgate.New(equalVerifier{}), WithLocation(east))

	res, err := e.Search(context.Background(), "6.3.2024", lockgate.Deny)
	require.NoError(t, err)
	assert.Len(t, res.Hits, 1)
}

func TestSearchOrdersBySettings(t *testing.T) {
	st := models.Settings{SortBy: models.SortByTitle, SortDirection: models.Asc, SearchHighlightColor: models.ColorBlue}
	notes := staticNotes{
		{ID: "2", Title: "note b"},
		{ID: "1", Title: "note a"},
	}
	e := NewEngine(notes, staticSettings(st), lockgate.New(equalVerifier{}))
	res, err := e.Search(context.Background(), "note", lockgate.Deny)
	require.NoError(t, err)
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "1", res.Hits[0].Note.ID)
	assert.Equal(t, models.ColorBlue, res.Color)
}

func ids(notes []models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}
