package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
)

// ImportedDir receives inbox files after a successful import.
const ImportedDir = "imported"

// debounce is how long a file must stay quiet before it is imported.
const debounce = 200 * time.Millisecond

// NoteSaver creates notes.
type NoteSaver interface {
	Save(ctx context.Context, note models.Note) (models.Note, error)
}

// TagStore resolves tag labels and attaches tags to notes.
type TagStore interface {
	FindByText(ctx context.Context, text string) (models.Tag, error)
	AddTag(ctx context.Context, text string) (models.Tag, error)
	ApplyTag(ctx context.Context, noteID, tagID string, p lockgate.Prompter) (models.Note, error)
}

// Importer turns inbox Markdown files into notes.
type Importer struct {
	fs     *FS
	notes  NoteSaver
	tags   TagStore
	logger *slog.Logger
}

// NewImporter creates an importer reading from the inbox fs.
func NewImporter(fs *FS, notes NoteSaver, tags TagStore, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{fs: fs, notes: notes, tags: tags, logger: logger}
}

// Import creates a note from the inbox file at rel and moves the file into
// ImportedDir. The file name stands in for a missing title.
func (im *Importer) Import(ctx context.Context, rel string) (models.Note, error) {
	data, err := im.fs.Read(rel)
	if err != nil {
		return models.Note{}, err
	}
	p := Decode(data)
	title := p.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(rel), ".md")
	}

	note, err := im.notes.Save(ctx, models.Note{Title: title, Text: p.Text})
	if err != nil {
		return models.Note{}, fmt.Errorf("vault: import %s: %w", rel, err)
	}
	for _, label := range p.Tags {
		tag, err := im.tags.FindByText(ctx, label)
		if errors.Is(err, apperr.ErrNotFound) {
			tag, err = im.tags.AddTag(ctx, label)
		}
		if err != nil {
			return note, fmt.Errorf("vault: import %s: tag %q: %w", rel, label, err)
		}
		if note, err = im.tags.ApplyTag(ctx, note.ID, tag.ID, lockgate.Deny); err != nil {
			return note, fmt.Errorf("vault: import %s: tag %q: %w", rel, label, err)
		}
	}

	if err := im.fs.Move(rel, filepath.Join(ImportedDir, filepath.Base(rel))); err != nil {
		return note, fmt.Errorf("vault: import %s: %w", rel, err)
	}
	im.logger.Info("vault: imported", slog.String("path", rel), slog.String("id", note.ID))
	return note, nil
}

// ImportAll imports every Markdown file currently in the inbox. Failures are
// logged and leave the file in place.
func (im *Importer) ImportAll(ctx context.Context) (int, error) {
	files, err := im.fs.List("")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range files {
		if _, err := im.Import(ctx, f.Path); err != nil {
			im.logger.Warn("vault: import failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		n++
	}
	return n, nil
}

// Watch imports files already in the inbox and then every Markdown file
// created or written there until ctx is cancelled. Bursts of events for one
// file are coalesced.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := im.fs.Root()
	if err := w.Add(root); err != nil {
		return fmt.Errorf("vault: watch %s: %w", root, err)
	}
	im.logger.Info("vault: inbox watcher started", slog.String("root", root))

	if _, err := im.ImportAll(ctx); err != nil {
		im.logger.Warn("vault: initial import failed", slog.String("error", err.Error()))
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			im.logger.Info("vault: inbox watcher stopped")
			return nil

		case <-fire:
			for rel := range pending {
				delete(pending, rel)
				if _, err := im.Import(ctx, rel); err != nil {
					im.logger.Warn("vault: import failed", slog.String("path", rel), slog.String("error", err.Error()))
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isMarkdown(filepath.Base(ev.Name)) {
				continue
			}
			rel, err := filepath.Rel(root, ev.Name)
			if err != nil || strings.Contains(rel, string(filepath.Separator)) {
				continue
			}
			pending[rel] = struct{}{}
			schedule()

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("vault: watcher error", slog.String("error", werr.Error()))
		}
	}
}
