// Package models defines the domain types for notekeeper.
package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// LineBreak is the literal two-character sequence that marks an intentional
// line break inside a note's text.
const LineBreak = `\n`

// Note is a single note. It lives either in the notes partition or in the trash.
type Note struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Text         string     `json:"text"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastModified time.Time  `json:"lastModified"`
	Password     string     `json:"password,omitempty"`
	Tags         []string   `json:"tags"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
}

// Validate checks the user-editable fields.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required),
		validation.Field(&n.Text, validation.Required),
	)
}

// Locked reports whether the note is password protected.
func (n Note) Locked() bool {
	return n.Password != ""
}

// Trashed reports whether the note carries a deletion stamp.
func (n Note) Trashed() bool {
	return n.DeletedAt != nil
}

// Lines returns the note text split on intentional line breaks.
func (n Note) Lines() []string {
	return strings.Split(n.Text, LineBreak)
}

// HasTag reports whether tagID is referenced by the note. Ids are compared
// after trimming surrounding whitespace.
func (n Note) HasTag(tagID string) bool {
	want := strings.TrimSpace(tagID)
	for _, t := range n.Tags {
		if strings.TrimSpace(t) == want {
			return true
		}
	}
	return false
}

// Redacted returns a copy safe to show while the note is still locked.
func (n Note) Redacted() Note {
	n.Text = ""
	n.Password = ""
	n.Tags = append([]string(nil), n.Tags...)
	return n
}

// Public returns a copy without the password hash.
func (n Note) Public() Note {
	n.Password = ""
	n.Tags = append([]string(nil), n.Tags...)
	return n
}

// Tag is a label that notes reference by id.
type Tag struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
}

// Validate checks the tag label.
func (t Tag) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Text, validation.Required),
	)
}
