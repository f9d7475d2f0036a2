package models

import (
	"testing"
	"time"
)

func TestNoteLocked(t *testing.T) {
	n := Note{Title: "a"}
	if n.Locked() {
		t.Error("note without password should not be locked")
	}
	n.Password = "$2a$10$hash"
	if !n.Locked() {
		t.Error("note with password should be locked")
	}
}

func TestNoteHasTagNormalises(t *testing.T) {
	n := Note{Tags: []string{" t1 ", "t2"}}
	if !n.HasTag("t1") {
		t.Error("expected t1 to match after trimming")
	}
	if n.HasTag("t3") {
		t.Error("t3 should not match")
	}
}

func TestNoteRedacted(t *testing.T) {
	now := time.Now()
	n := Note{ID: "1", Title: "secret", Text: "body", Password: "h", Tags: []string{"a"}, CreatedAt: now}
	r := n.Redacted()
	if r.Text != "" || r.Password != "" {
		t.Errorf("redacted note leaks content: %+v", r)
	}
	if r.Title != "secret" || !r.CreatedAt.Equal(now) {
		t.Errorf("redacted note lost metadata: %+v", r)
	}
	r.Tags[0] = "changed"
	if n.Tags[0] != "a" {
		t.Error("redacted copy shares the tags slice")
	}
}

func TestNoteLines(t *testing.T) {
	n := Note{Text: `one\ntwo`}
	lines := n.Lines()
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %q", lines)
	}
}

func TestNoteValidate(t *testing.T) {
	if err := (Note{Title: "t", Text: "x"}).Validate(); err != nil {
		t.Errorf("valid note: %v", err)
	}
	if err := (Note{Title: "t"}).Validate(); err == nil {
		t.Error("expected error for missing text")
	}
	if err := (Note{Text: "x"}).Validate(); err == nil {
		t.Error("expected error for missing title")
	}
	if err := (Tag{}).Validate(); err == nil {
		t.Error("expected error for empty tag text")
	}
}
