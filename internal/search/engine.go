// Package search finds notes by creation date, title or body and orders them
// by the configured sort settings.
//
// Date queries never prompt for passwords: locked hits are reported without
// content. Text hits on locked notes must pass the lock gate first.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
)

// Mode is the field a result matched on.
type Mode string

const (
	ModeDate  Mode = "date"
	ModeTitle Mode = "title"
	ModeText  Mode = "text"
)

var dateQuery = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`)

// IsDateQuery reports whether q has the form D.M.YYYY with one or two digit
// day and month.
func IsDateQuery(q string) bool {
	return dateQuery.MatchString(strings.TrimSpace(q))
}

// NoteSource lists active notes.
type NoteSource interface {
	List(ctx context.Context) ([]models.Note, error)
}

// SettingsSource returns the sort and highlight preferences.
type SettingsSource interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Gate opens locked notes.
type Gate interface {
	Open(ctx context.Context, note models.Note, p lockgate.Prompter) error
}

// Hit is one matched note.
type Hit struct {
	Note models.Note `json:"note"`
	// Locked is set when the note matched but its content stays hidden.
	Locked bool `json:"locked"`
	// Spans locate the matches in the matched field of Note.
	Spans []Span `json:"spans,omitempty"`
	// Highlighted is the matched field with terminal highlight markers.
	Highlighted string `json:"-"`
}

// Result is the outcome of one query.
type Result struct {
	Query string       `json:"query"`
	Mode  Mode         `json:"mode"`
	Color models.Color `json:"color"`
	Hits  []Hit        `json:"hits"`
}

// Engine runs queries.
type Engine struct {
	notes    NoteSource
	settings SettingsSource
	gate     Gate
	loc      *time.Location
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the time zone used for date queries.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine.
func NewEngine(notes NoteSource, settings SettingsSource, gate Gate, opts ...Option) *Engine {
	e := &Engine{notes: notes, settings: settings, gate: gate, loc: time.Local, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs query. Locked text hits are opened through p; an aborted
// unlock reports the hit as locked.
func (e *Engine) Search(ctx context.Context, query string, p lockgate.Prompter) (Result, error) {
	st, err := e.settings.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("search: settings: %w", err)
	}
	all, err := e.notes.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("search: list notes: %w", err)
	}
	notes := SortNotesBy(all, st.SortBy, st.SortDirection)
	res := Result{Query: query, Color: st.SearchHighlightColor, Hits: []Hit{}}

	if IsDateQuery(query) {
		res.Mode = ModeDate
		res.Hits = e.byDate(notes, query)
		return res, nil
	}

	re := compileQuery(query)
	res.Mode = ModeTitle
	hits, matched := scan(notes, re, func(n models.Note) string { return n.Title })
	if len(hits) == 0 {
		res.Mode = ModeText
		hits, matched = scan(notes, re, func(n models.Note) string { return n.Text })
	}

	for i, n := range hits {
		hit, err := e.reveal(ctx, n, res.Mode, matched[i], st.SearchHighlightColor, p)
		if err != nil {
			return Result{}, err
		}
		res.Hits = append(res.Hits, hit)
	}
	e.logger.Debug("search: done",
		slog.String("mode", string(res.Mode)),
		slog.Int("hits", len(res.Hits)))
	return res, nil
}

func (e *Engine) byDate(notes []models.Note, query string) []Hit {
	day, month, year := parseDate(query)
	hits := []Hit{}
	for _, n := range notes {
		y, m, d := n.CreatedAt.In(e.loc).Date()
		if y != year || int(m) != month || d != day {
			continue
		}
		if n.Locked() {
			hits = append(hits, Hit{Note: n.Redacted(), Locked: true})
			continue
		}
		hits = append(hits, Hit{Note: n.Public()})
	}
	return hits
}

func (e *Engine) reveal(ctx context.Context, n models.Note, mode Mode, match string, c models.Color, p lockgate.Prompter) (Hit, error) {
	if n.Locked() {
		if err := e.gate.Open(ctx, n, p); err != nil {
			if lockgate.Aborted(err) {
				return Hit{Note: n.Redacted(), Locked: true}, nil
			}
			return Hit{}, fmt.Errorf("search: %w", err)
		}
	}
	field := n.Title
	if mode == ModeText {
		field = n.Text
	}
	return Hit{
		Note:        n.Public(),
		Spans:       Occurrences(field, match),
		Highlighted: Highlight(field, match, c),
	}, nil
}

// scan returns the notes whose field matches re, with the first matched
// substring of each. An empty match still counts as a hit.
func scan(notes []models.Note, re *regexp.Regexp, field func(models.Note) string) ([]models.Note, []string) {
	var hits []models.Note
	var matched []string
	for _, n := range notes {
		text := field(n)
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		hits = append(hits, n)
		matched = append(matched, text[loc[0]:loc[1]])
	}
	return hits, matched
}

// compileQuery treats q as a case-insensitive expression and falls back to a
// literal match when it does not compile.
func compileQuery(q string) *regexp.Regexp {
	if re, err := regexp.Compile("(?i)" + q); err == nil {
		return re
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(q))
}

func parseDate(q string) (day, month, year int) {
	parts := strings.Split(strings.TrimSpace(q), ".")
	day, _ = strconv.Atoi(parts[0])
	month, _ = strconv.Atoi(parts[1])
	year, _ = strconv.Atoi(parts[2])
	return day, month, year
}
