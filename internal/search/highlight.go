package search

import (
	"regexp"

	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/render"
)

// Span is a half-open byte range of a match in the unmarked string.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Occurrences returns every non-overlapping, case-insensitive occurrence of
// sub in s.
func Occurrences(s, sub string) []Span {
	if sub == "" {
		return nil
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(sub))
	idx := re.FindAllStringIndex(s, -1)
	out := make([]Span, len(idx))
	for i, m := range idx {
		out[i] = Span{Start: m[0], End: m[1]}
	}
	return out
}

// MarkerLen is the number of bytes one highlight adds to a string.
func MarkerLen(c models.Color) int {
	return len(render.Bright) + len(render.Code(c)) + len(render.Reset)
}

// Highlight wraps every occurrence of sub in s with highlight markers.
// Offsets are taken from the unmarked string, so occurrence i is shifted by
// i markers to land on the right place in the partially marked result.
func Highlight(s, sub string, c models.Color) string {
	spans := Occurrences(s, sub)
	if len(spans) == 0 {
		return s
	}
	open := render.Bright + render.Code(c)
	shift := MarkerLen(c)
	out := s
	for i, sp := range spans {
		start := sp.Start + i*shift
		end := start + (sp.End - sp.Start)
		out = out[:start] + open + out[start:end] + render.Reset + out[end:]
	}
	return out
}
