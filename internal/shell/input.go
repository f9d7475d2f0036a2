package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/render"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// Input reads answers from the user. Secrets are read without echo when fd
// is a terminal and as plain lines otherwise.
type Input struct {
	r  *bufio.Reader
	w  io.Writer
	fd int
}

// NewInput creates an Input reading from r and prompting on w.
func NewInput(r io.Reader, w io.Writer, fd int) *Input {
	return &Input{r: bufio.NewReader(r), w: w, fd: fd}
}

// Line prints prompt and reads one trimmed line. A final line without a
// newline is returned; io.EOF is returned only when nothing was read.
func (in *Input) Line(prompt string) (string, error) {
	if prompt != "" {
		if _, err := fmt.Fprint(in.w, prompt); err != nil {
			return "", err
		}
	}
	line, err := in.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Multiline reads lines until an empty one and joins them with the stored
// line break mark.
func (in *Input) Multiline(prompt string) (string, error) {
	if _, err := fmt.Fprint(in.w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}
	var lines []string
	for {
		line, err := in.r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
		if line == "" || err != nil {
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, models.LineBreak)), nil
}

// Secret prints prompt and reads a secret.
func (in *Input) Secret(prompt string) (string, error) {
	if !isTerminal(in.fd) {
		return in.Line(prompt)
	}
	if _, err := fmt.Fprint(in.w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(in.fd)
	fmt.Fprintln(in.w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// secretPrompter feeds the lock gate from the terminal. An empty answer or
// end of input cancels the unlock.
type secretPrompter struct {
	in *Input
	w  io.Writer
}

func (p secretPrompter) Secret(ctx context.Context, note models.Note) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	secret, err := p.in.Secret(fmt.Sprintf("Password for %q (empty to cancel): ", note.Title))
	if errors.Is(err, io.EOF) || (err == nil && secret == "") {
		return "", fmt.Errorf("%w: %w", apperr.ErrAborted, apperr.ErrLocked)
	}
	return secret, err
}

func (p secretPrompter) Rejected(models.Note) {
	fmt.Fprintln(p.w, render.Error("Incorrect password"))
}
