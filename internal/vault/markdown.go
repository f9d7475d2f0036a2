package vault

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/render"
)

var inlineTagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

const delim = "---"

// Frontmatter is the YAML header of an exported note.
type Frontmatter struct {
	ID       string    `yaml:"id,omitempty"`
	Title    string    `yaml:"title,omitempty"`
	Tags     []string  `yaml:"tags,omitempty"`
	Created  time.Time `yaml:"created,omitempty"`
	Modified time.Time `yaml:"modified,omitempty"`
	Locked   bool      `yaml:"locked,omitempty"`
}

// Encode renders note as Markdown with frontmatter. tagNames replaces the
// tag ids in the header. The body of a locked note is left out.
func Encode(note models.Note, tagNames []string, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	fm := Frontmatter{
		ID:       note.ID,
		Title:    note.Title,
		Tags:     tagNames,
		Created:  note.CreatedAt.In(loc),
		Modified: note.LastModified.In(loc),
		Locked:   note.Locked(),
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("vault: encode frontmatter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString(delim + "\n")
	b.Write(header)
	b.WriteString(delim + "\n\n")
	b.WriteString("# " + note.Title + "\n")
	if !note.Locked() && note.Text != "" {
		b.WriteString("\n" + render.ExpandLineBreaks(note.Text) + "\n")
	}
	return b.Bytes(), nil
}

// Parsed is a decoded Markdown note.
type Parsed struct {
	Meta  Frontmatter
	Title string
	// Text is the body in stored form, with line break marks.
	Text string
	// Tags are tag labels from the frontmatter and inline #tags, deduplicated.
	Tags []string
}

// Decode parses Markdown with optional frontmatter. Invalid YAML is treated
// as part of the body.
func Decode(data []byte) Parsed {
	fm, body := splitFrontmatter(data)
	title, body := deriveTitle(fm, body)
	return Parsed{
		Meta:  fm,
		Title: title,
		Text:  toNoteText(body),
		Tags:  collectTags(fm, body),
	}
}

func splitFrontmatter(data []byte) (Frontmatter, string) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return Frontmatter{}, string(data)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return Frontmatter{}, string(data)
	}
	block := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	var fm Frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return Frontmatter{}, string(data)
	}
	return fm, body
}

// deriveTitle returns the frontmatter title or the first H1 heading. A
// heading used as (or equal to) the title is removed from the body.
func deriveTitle(fm Frontmatter, body string) (string, string) {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "# ") {
			continue
		}
		heading := strings.TrimSpace(trimmed[2:])
		if fm.Title != "" && heading != fm.Title {
			break
		}
		rest := append(lines[:i:i], lines[i+1:]...)
		return heading, strings.Join(rest, "\n")
	}
	return fm.Title, body
}

func collectTags(fm Frontmatter, body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range fm.Tags {
		add(t)
	}
	for _, m := range inlineTagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

func toNoteText(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.TrimSpace(body)
	return strings.ReplaceAll(body, "\n", models.LineBreak)
}
