package search

import (
	"slices"
	"strings"

	"github.com/starford/notekeeper/internal/models"
)

// SortNotesBy returns a sorted copy of notes. Ties keep their input order.
// Any direction other than asc sorts descending.
func SortNotesBy(notes []models.Note, field models.SortField, dir models.SortDirection) []models.Note {
	out := slices.Clone(notes)
	cmp := comparator(field)
	if dir != models.Asc {
		asc := cmp
		cmp = func(a, b models.Note) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

func comparator(field models.SortField) func(a, b models.Note) int {
	switch field {
	case models.SortByTitle:
		return func(a, b models.Note) int { return strings.Compare(a.Title, b.Title) }
	case models.SortByText:
		return func(a, b models.Note) int { return strings.Compare(a.Text, b.Text) }
	}
	return func(a, b models.Note) int { return a.CreatedAt.Compare(b.CreatedAt) }
}
