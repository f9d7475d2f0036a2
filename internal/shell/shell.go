// Package shell implements the interactive terminal front end.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/keeper"
	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/render"
	"github.com/starford/notekeeper/internal/search"
	"github.com/starford/notekeeper/internal/settings"
)

const helpText = `Available commands:
  list                          list notes
  show <id>                     show a note
  create                        create a note
  update <id>                   update a note
  delete <id>                   move a note to the trash
  search [query]                search by D.M.YYYY, title or text
  filter <tag>                  list notes with a tag
  lock <id> | unlock <id>       lock or unlock a note
  share <id>                    send a note by SMS
  tags [add|edit|remove|apply]  manage tags
  settings [set|main]           show or edit settings
  trash [show|restore|purge|empty]
  exit | quit`

// Shell is a read-eval-print loop over the note services.
type Shell struct {
	svc    *keeper.Services
	in     *Input
	out    io.Writer
	gate   lockgate.Prompter
	logger *slog.Logger
}

// New creates a shell reading commands from in and writing to out.
func New(svc *keeper.Services, in *Input, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		svc:    svc,
		in:     in,
		out:    out,
		gate:   secretPrompter{in: in, w: out},
		logger: logger,
	}
}

// Run reads commands until exit, end of input, or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := s.in.Line("nk> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("shell: read command: %w", err)
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		if cmd == "exit" || cmd == "quit" {
			s.println("Bye!")
			return nil
		}
		s.dispatch(ctx, cmd, args)
	}
}

func (s *Shell) dispatch(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		s.println(helpText)
	case "l", "list":
		s.list(ctx)
	case "show":
		s.withID(args, "show note", func(id string) error { return s.show(ctx, id) })
	case "create":
		s.create(ctx)
	case "update":
		s.withID(args, "update note", func(id string) error { return s.update(ctx, id) })
	case "delete":
		s.withID(args, "delete note", func(id string) error { return s.trash(ctx, id) })
	case "search":
		s.search(ctx, strings.Join(args, " "))
	case "filter":
		s.filter(ctx, strings.Join(args, " "))
	case "lock":
		s.withID(args, "lock note", func(id string) error { return s.lock(ctx, id) })
	case "unlock":
		s.withID(args, "unlock note", func(id string) error { return s.unlock(ctx, id) })
	case "share":
		s.withID(args, "share note", func(id string) error { return s.share(ctx, id) })
	case "tags":
		s.tags(ctx, args)
	case "settings":
		s.settings(ctx, args)
	case "trash":
		s.trashCmd(ctx, args)
	default:
		s.println("Unknown command:", cmd)
	}
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

func (s *Shell) done(msg string) {
	s.println(render.Done(msg))
}

// fail reports err for action. Cancelled unlocks are reported as locked.
func (s *Shell) fail(action string, err error) {
	cause := err.Error()
	switch {
	case errors.Is(err, apperr.ErrLocked):
		cause = "note is locked"
	case errors.Is(err, apperr.ErrNotFound):
		cause = "not found"
	}
	s.logger.Debug("shell: command failed", slog.String("action", action), slog.String("error", err.Error()))
	s.println(render.Error(action + ": " + cause))
}

func (s *Shell) withID(args []string, action string, fn func(id string) error) {
	if len(args) == 0 {
		s.println(render.Error(action + ": missing note id"))
		return
	}
	if err := fn(args[0]); err != nil {
		s.fail(action, err)
	}
}

func (s *Shell) sorted(ctx context.Context, notes []models.Note) ([]models.Note, error) {
	st, err := s.svc.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return search.SortNotesBy(notes, st.SortBy, st.SortDirection), nil
}

func (s *Shell) printList(notes []models.Note) {
	if len(notes) == 0 {
		s.println(render.Separator + "\n  No notes to show\n" + render.Separator)
		return
	}
	for _, n := range notes {
		s.println(n.ID)
		s.println(s.svc.Printer.Note(n))
	}
}

// offerUnlock runs each locked note of a listing through the lock gate and
// prints the bodies that open. An empty answer stops the offer.
func (s *Shell) offerUnlock(ctx context.Context, notes []models.Note) {
	for _, n := range notes {
		if !n.Locked() {
			continue
		}
		err := s.svc.Gate.Open(ctx, n, s.gate)
		if errors.Is(err, apperr.ErrAborted) {
			return
		}
		if err != nil {
			s.fail("unlock note", err)
			return
		}
		s.println(s.svc.Printer.Unlocked(n))
	}
}

func (s *Shell) list(ctx context.Context) {
	notes, err := s.svc.Notes.List(ctx)
	if err == nil {
		notes, err = s.sorted(ctx, notes)
	}
	if err != nil {
		s.fail("list notes", err)
		return
	}
	s.printList(notes)
	s.offerUnlock(ctx, notes)
}

// open loads an active note and runs it through the lock gate.
func (s *Shell) open(ctx context.Context, id string) (models.Note, error) {
	note, err := s.svc.Notes.Get(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if err := s.svc.Gate.Open(ctx, note, s.gate); err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *Shell) show(ctx context.Context, id string) error {
	note, err := s.open(ctx, id)
	if err != nil {
		return err
	}
	s.println(s.svc.Printer.Unlocked(note))
	return nil
}

func (s *Shell) create(ctx context.Context) {
	title, err := s.in.Line("Title: ")
	if err != nil {
		s.fail("create note", err)
		return
	}
	text, err := s.in.Multiline("Text:")
	if err != nil {
		s.fail("create note", err)
		return
	}
	note, err := s.svc.Notes.Save(ctx, models.Note{Title: title, Text: text})
	if err != nil {
		s.fail("create note", err)
		return
	}
	s.done("note created successfully (" + note.ID + ")")
}

func (s *Shell) update(ctx context.Context, id string) error {
	note, err := s.open(ctx, id)
	if err != nil {
		return err
	}
	title, err := s.in.Line(fmt.Sprintf("Title [%s]: ", note.Title))
	if err != nil {
		return err
	}
	text, err := s.in.Multiline("Text (empty keeps the current text):")
	if err != nil {
		return err
	}
	if title != "" {
		note.Title = title
	}
	if text != "" {
		note.Text = text
	}
	if _, err := s.svc.Notes.Save(ctx, note); err != nil {
		return err
	}
	s.done("note updated successfully")
	return nil
}

func (s *Shell) trash(ctx context.Context, id string) error {
	if _, err := s.open(ctx, id); err != nil {
		return err
	}
	if _, err := s.svc.Notes.MoveToTrash(ctx, id); err != nil {
		return err
	}
	s.done("note moved to trash")
	return nil
}

func (s *Shell) search(ctx context.Context, query string) {
	if query == "" {
		q, err := s.in.Line("Search: ")
		if err != nil {
			s.fail("search", err)
			return
		}
		query = q
	}
	if strings.TrimSpace(query) == "" {
		s.println(render.Error("search: empty query"))
		return
	}
	res, err := s.svc.Search.Search(ctx, query, s.gate)
	if err != nil {
		s.fail("search", err)
		return
	}
	if len(res.Hits) == 0 {
		s.println(render.Separator + "\n  No matches\n" + render.Separator)
		return
	}
	for _, h := range res.Hits {
		switch {
		case h.Locked:
			s.println(render.Red + render.Bright + render.LockedMessage + render.Reset + " " + h.Note.Title)
		case res.Mode == search.ModeDate:
			s.println(s.svc.Printer.Hit(h.Note, h.Note.Title, h.Note.Text, true, res.Color))
		case res.Mode == search.ModeTitle:
			s.println(s.svc.Printer.Hit(h.Note, h.Highlighted, h.Note.Text, false, res.Color))
		default:
			s.println(s.svc.Printer.Hit(h.Note, h.Note.Title, h.Highlighted, false, res.Color))
		}
	}
}

func (s *Shell) filter(ctx context.Context, label string) {
	if label == "" {
		s.println(render.Error("filter: missing tag"))
		return
	}
	tag, err := s.svc.Tags.FindByText(ctx, label)
	if err != nil {
		s.fail("filter", err)
		return
	}
	notes, err := s.svc.Tags.FilterByTag(ctx, tag.ID)
	if err == nil {
		notes, err = s.sorted(ctx, notes)
	}
	if err != nil {
		s.fail("filter", err)
		return
	}
	s.printList(notes)
	s.offerUnlock(ctx, notes)
}

func (s *Shell) lock(ctx context.Context, id string) error {
	note, err := s.open(ctx, id)
	if err != nil {
		return err
	}
	st, err := s.svc.Settings.Get(ctx)
	if err != nil {
		return err
	}
	var secret string
	if !st.HasMainPassword() {
		if secret, err = s.in.Secret("New password: "); err != nil {
			return err
		}
	}
	if _, err := s.svc.Passwords.Lock(ctx, note, secret); err != nil {
		return err
	}
	s.done("note locked successfully")
	return nil
}

func (s *Shell) unlock(ctx context.Context, id string) error {
	note, err := s.open(ctx, id)
	if err != nil {
		return err
	}
	if !note.Locked() {
		s.println("Note is not locked")
		return nil
	}
	open, err := s.svc.Passwords.RemoveLock(ctx, note)
	if err != nil {
		return err
	}
	s.done("note unlocked successfully")
	s.println(s.svc.Printer.Note(open))
	return nil
}

func (s *Shell) share(ctx context.Context, id string) error {
	at, err := s.svc.Share.Share(ctx, id, s.gate)
	if err != nil {
		return err
	}
	s.done("message sent successfully at " + render.FormatDate(at, s.svc.Location))
	return nil
}

func (s *Shell) tags(ctx context.Context, args []string) {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	var err error
	switch sub {
	case "list":
		var all []models.Tag
		if all, err = s.svc.Tags.ListTags(ctx); err == nil {
			for _, t := range all {
				s.println(t.ID, render.Tag(t))
			}
		}
	case "add":
		var t models.Tag
		if t, err = s.svc.Tags.AddTag(ctx, strings.Join(args, " ")); err == nil {
			s.done("tag created " + render.Tag(t))
		}
	case "edit":
		if len(args) < 2 {
			s.println(render.Error("tags edit: usage: tags edit <id> <text>"))
			return
		}
		if _, err = s.svc.Tags.EditTag(ctx, args[0], strings.Join(args[1:], " ")); err == nil {
			s.done("tag updated")
		}
	case "remove":
		if len(args) < 1 {
			s.println(render.Error("tags remove: missing tag id"))
			return
		}
		if err = s.svc.Tags.RemoveTag(ctx, args[0]); err == nil {
			s.done("tag removed")
		}
	case "apply":
		if len(args) < 2 {
			s.println(render.Error("tags apply: usage: tags apply <note id> <tag id>"))
			return
		}
		if _, err = s.svc.Tags.ApplyTag(ctx, args[0], args[1], s.gate); err == nil {
			s.done("tag applied")
		}
	default:
		s.println("Unknown tags command:", sub)
		return
	}
	if err != nil {
		s.fail("tags "+sub, err)
	}
}

func (s *Shell) settings(ctx context.Context, args []string) {
	sub := "show"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	var err error
	switch sub {
	case "show":
		var st models.Settings
		if st, err = s.svc.Settings.Get(ctx); err == nil {
			for _, f := range settings.Fields() {
				s.println(fmt.Sprintf("%s = %s  (%s)", f, f.Value(st), strings.Join(f.Options(), ", ")))
			}
			s.println(fmt.Sprintf("mainPassword set = %t", st.HasMainPassword()))
		}
	case "set":
		if len(args) != 2 {
			s.println(render.Error("settings set: usage: settings set <field> <value>"))
			return
		}
		var f settings.Field
		if f, err = settings.ParseField(args[0]); err == nil {
			if _, err = s.svc.Settings.Update(ctx, f, args[1]); err == nil {
				s.done("settings saved successfully")
			}
		}
	case "main":
		err = s.mainPassword(ctx, args)
	default:
		s.println("Unknown settings command:", sub)
		return
	}
	if err != nil {
		s.fail("settings "+sub, err)
	}
}

func (s *Shell) mainPassword(ctx context.Context, args []string) error {
	if len(args) == 1 && args[0] == "clear" {
		if err := s.svc.Passwords.ClearMainPassword(ctx); err != nil {
			return err
		}
		s.done("main password cleared")
		return nil
	}
	secret, err := s.in.Secret("Main password: ")
	if err != nil {
		return err
	}
	if err := s.svc.Passwords.SetMainPassword(ctx, secret); err != nil {
		return err
	}
	s.done("main password set")
	return nil
}

func (s *Shell) trashCmd(ctx context.Context, args []string) {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	var err error
	switch sub {
	case "list":
		var notes []models.Note
		if notes, err = s.svc.Notes.ListTrash(ctx); err == nil {
			s.printList(notes)
			s.offerUnlock(ctx, notes)
		}
	case "show":
		var note models.Note
		if note, err = s.svc.Notes.GetTrashed(ctx, id); err == nil {
			if err = s.svc.Gate.Open(ctx, note, s.gate); err == nil {
				s.println(s.svc.Printer.Unlocked(note))
			}
		}
	case "restore":
		if _, err = s.svc.Notes.RestoreFromTrash(ctx, id); err == nil {
			s.done("note restored")
		}
	case "purge":
		if err = s.svc.Notes.Purge(ctx, id); err == nil {
			s.done("note deleted permanently")
		}
	case "empty":
		var n int
		if n, err = s.svc.Notes.EmptyTrash(ctx); err == nil {
			s.done(fmt.Sprintf("trash emptied (%d notes)", n))
		}
	default:
		s.println("Unknown trash command:", sub)
		return
	}
	if err != nil {
		s.fail("trash "+sub, err)
	}
}
