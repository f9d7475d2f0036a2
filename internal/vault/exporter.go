package vault

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/notekeeper/internal/models"
)

// NoteLister lists active notes.
type NoteLister interface {
	List(ctx context.Context) ([]models.Note, error)
}

// TagLister lists tags.
type TagLister interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
}

// Report summarises one export run.
type Report struct {
	Written   int `json:"written"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
}

// Exporter writes one <id>.md file per active note.
type Exporter struct {
	fs     *FS
	notes  NoteLister
	tags   TagLister
	loc    *time.Location
	logger *slog.Logger
}

// NewExporter creates an exporter writing into fs.
func NewExporter(fs *FS, notes NoteLister, tags TagLister, loc *time.Location, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{fs: fs, notes: notes, tags: tags, loc: loc, logger: logger}
}

// Export writes changed notes and removes files of notes that are no longer
// active. Files without an id in their frontmatter are left alone.
func (e *Exporter) Export(ctx context.Context) (Report, error) {
	var rep Report
	notes, err := e.notes.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("vault: export: %w", err)
	}
	all, err := e.tags.ListTags(ctx)
	if err != nil {
		return rep, fmt.Errorf("vault: export: %w", err)
	}
	labels := make(map[string]string, len(all))
	for _, t := range all {
		labels[t.ID] = t.Text
	}

	existing, err := e.fs.List("")
	if err != nil {
		return rep, fmt.Errorf("vault: export: %w", err)
	}
	sums := make(map[string]string, len(existing))
	for _, f := range existing {
		sums[f.Path] = f.Checksum
	}

	active := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		name := n.ID + ".md"
		active[name] = struct{}{}

		data, err := Encode(n, tagLabels(n.Tags, labels), e.loc)
		if err != nil {
			return rep, err
		}
		if sums[name] == Sum(data) {
			rep.Unchanged++
			continue
		}
		if err := e.fs.Write(name, data); err != nil {
			return rep, fmt.Errorf("vault: export %s: %w", n.ID, err)
		}
		rep.Written++
		e.logger.Debug("vault: exported", slog.String("id", n.ID))
	}

	for _, f := range existing {
		if _, ok := active[f.Path]; ok {
			continue
		}
		data, err := e.fs.Read(f.Path)
		if err != nil {
			continue
		}
		if id := Decode(data).Meta.ID; id == "" || id+".md" != path.Base(f.Path) {
			continue
		}
		if err := e.fs.Delete(f.Path); err != nil {
			return rep, err
		}
		rep.Removed++
	}

	e.logger.Info("vault: export finished",
		slog.Int("written", rep.Written),
		slog.Int("unchanged", rep.Unchanged),
		slog.Int("removed", rep.Removed))
	return rep, nil
}

// tagLabels maps ids to labels. Ids of deleted tags are kept as is.
func tagLabels(ids []string, labels map[string]string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if l, ok := labels[strings.TrimSpace(id)]; ok {
			out = append(out, l)
			continue
		}
		out = append(out, id)
	}
	return out
}
