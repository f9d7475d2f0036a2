package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/starford/notekeeper/internal/models"
)

var at = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "5.3.2024, 14:07:09", FormatDate(at, time.UTC))
	jer := time.FixedZone("IST", 2*3600)
	assert.Equal(t, "5.3.2024, 16:07:09", FormatDate(at, jer))
}

func TestExpandLineBreaks(t *testing.T) {
	assert.Equal(t, "one\ntwo", ExpandLineBreaks(`one\ntwo`))
}

func TestCode(t *testing.T) {
	assert.Equal(t, Magenta, Code(models.ColorMagenta))
	assert.Equal(t, Red, Code(models.Color("plaid")))
}

func TestPrinterNote(t *testing.T) {
	p := Printer{Loc: time.UTC}
	n := models.Note{Title: "title", Text: `a\nb`, LastModified: at}

	out := p.Note(n)
	assert.Contains(t, out, "5.3.2024, 14:07:09")
	assert.Contains(t, out, "a\nb")
	assert.True(t, strings.HasSuffix(out, Separator))

	n.Password = "hash"
	out = p.Note(n)
	assert.Contains(t, out, LockedMessage)
	assert.NotContains(t, out, "a\nb")

	assert.Contains(t, p.Unlocked(n), "a\nb")
}

func TestPrinterPlain(t *testing.T) {
	p := Printer{Loc: time.UTC}
	n := models.Note{Title: "t", Text: `x\ny`, LastModified: at, Tags: []string{"work"}}
	assert.Equal(t, "5.3.2024, 14:07:09\n\nt\n\nx\ny\n\nwork", p.Plain(n))
	assert.NotContains(t, p.Plain(n), "\x1b")
}

func TestErrorAndDone(t *testing.T) {
	assert.Equal(t, Red+"Error:"+Reset+" boom", Error("boom"))
	assert.Equal(t, Green+"Done:"+Reset+" ok", Done("ok"))
}
