// Package render formats notes for terminals and plain-text channels.
package render

import (
	"strings"
	"time"

	"github.com/starford/notekeeper/internal/models"
)

// ANSI decoration codes.
const (
	Reset      = "\x1b[0m"
	Bright     = "\x1b[1m"
	Dim        = "\x1b[2m"
	Underscore = "\x1b[4m"

	Red     = "\x1b[31m"
	Green   = "\x1b[32m"
	Yellow  = "\x1b[33m"
	Blue    = "\x1b[34m"
	Magenta = "\x1b[35m"
	Cyan    = "\x1b[36m"
	White   = "\x1b[37m"
)

// DateLayout renders timestamps as day.month.year, hours:minutes:seconds.
const DateLayout = "2.1.2006, 15:04:05"

// Separator closes every rendered note.
const Separator = "- - - - - - - - - - -"

// LockedMessage replaces the body of a note that has not been unlocked.
const LockedMessage = "This note is locked!"

// Code returns the ANSI foreground code for c. Unknown colors map to red.
func Code(c models.Color) string {
	switch c {
	case models.ColorGreen:
		return Green
	case models.ColorYellow:
		return Yellow
	case models.ColorBlue:
		return Blue
	case models.ColorMagenta:
		return Magenta
	case models.ColorCyan:
		return Cyan
	case models.ColorWhite:
		return White
	}
	return Red
}

// FormatDate renders t in loc. A nil loc means local time.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// ExpandLineBreaks turns the stored line break marks into newlines.
func ExpandLineBreaks(text string) string {
	return strings.ReplaceAll(text, models.LineBreak, "\n")
}

// Printer renders notes with a fixed time zone.
type Printer struct {
	Loc *time.Location
}

// Note renders a decorated note. Locked notes show a notice instead of the body.
func (p Printer) Note(n models.Note) string {
	var b strings.Builder
	b.WriteString(Dim + FormatDate(n.LastModified, p.Loc) + Reset)
	b.WriteString("\n\n" + Bright + Underscore + n.Title + Reset)
	if n.Locked() {
		b.WriteString("\n\n" + Red + Bright + LockedMessage + Reset)
	} else {
		b.WriteString("\n\n" + ExpandLineBreaks(n.Text))
	}
	b.WriteString("\n\n" + Separator)
	return b.String()
}

// Unlocked renders a note whose gate has been passed, including its body.
func (p Printer) Unlocked(n models.Note) string {
	n.Password = ""
	return p.Note(n)
}

// Hit renders a search hit. title and text may already carry highlight
// markers. dateMatch highlights the timestamp line instead.
func (p Printer) Hit(n models.Note, title, text string, dateMatch bool, color models.Color) string {
	var b strings.Builder
	b.WriteString(Dim)
	if dateMatch {
		b.WriteString(Bright + Code(color))
	}
	b.WriteString(FormatDate(n.LastModified, p.Loc) + Reset)
	b.WriteString("\n\n" + Bright + Underscore + title + Reset)
	b.WriteString("\n\n" + ExpandLineBreaks(text) + Reset)
	b.WriteString("\n\n" + Separator)
	return b.String()
}

// Plain renders a note without decoration, as sent over SMS.
func (p Printer) Plain(n models.Note) string {
	var b strings.Builder
	b.WriteString(FormatDate(n.LastModified, p.Loc))
	b.WriteString("\n\n" + n.Title)
	b.WriteString("\n\n" + ExpandLineBreaks(n.Text))
	for _, t := range n.Tags {
		b.WriteString("\n\n" + t)
	}
	return b.String()
}

// Tag renders a tag label.
func Tag(t models.Tag) string {
	return Bright + "#" + t.Text + Reset
}

// Error formats a one line failure.
func Error(msg string) string {
	return Red + "Error:" + Reset + " " + msg
}

// Done formats a one line success.
func Done(msg string) string {
	return Green + "Done:" + Reset + " " + msg
}
