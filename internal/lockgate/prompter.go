package lockgate

import (
	"context"
	"fmt"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/models"
)

type once struct {
	candidate string
	used      map[string]struct{}
}

// Once returns a Prompter that offers candidate a single time per note. An
// empty candidate aborts with apperr.ErrLocked; a second request for the same
// note aborts with apperr.ErrIncorrectSecret.
func Once(candidate string) Prompter {
	return &once{candidate: candidate, used: make(map[string]struct{})}
}

func (o *once) Secret(_ context.Context, note models.Note) (string, error) {
	if o.candidate == "" {
		return "", fmt.Errorf("%w: %w", apperr.ErrAborted, apperr.ErrLocked)
	}
	if _, ok := o.used[note.ID]; ok {
		return "", fmt.Errorf("%w: %w", apperr.ErrAborted, apperr.ErrIncorrectSecret)
	}
	o.used[note.ID] = struct{}{}
	return o.candidate, nil
}

func (o *once) Rejected(models.Note) {}

type deny struct{}

// Deny is a Prompter that never supplies a secret.
var Deny Prompter = deny{}

func (deny) Secret(context.Context, models.Note) (string, error) {
	return "", fmt.Errorf("%w: %w", apperr.ErrAborted, apperr.ErrLocked)
}

func (deny) Rejected(models.Note) {}

// Func adapts a function to the Prompter interface. Rejections are ignored.
type Func func(ctx context.Context, note models.Note) (string, error)

func (f Func) Secret(ctx context.Context, note models.Note) (string, error) {
	return f(ctx, note)
}

func (Func) Rejected(models.Note) {}
