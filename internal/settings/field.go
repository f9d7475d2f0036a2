package settings

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notekeeper/internal/apperr"
	"github.com/starford/notekeeper/internal/models"
)

// Field is one editable settings entry. The set is closed: only the
// constants below are accepted by Store.Update.
type Field string

const (
	FieldSortBy         Field = "sortBy"
	FieldSortDirection  Field = "sortDirection"
	FieldHighlightColor Field = "searchHighlightColor"
)

// Fields lists the editable fields in menu order.
func Fields() []Field {
	return []Field{FieldSortBy, FieldSortDirection, FieldHighlightColor}
}

// ParseField maps a field name to its selector.
func ParseField(name string) (Field, error) {
	for _, f := range Fields() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("settings: unknown field %q: %w", name, apperr.ErrValidation)
}

// Options returns the values the field accepts.
func (f Field) Options() []string {
	switch f {
	case FieldSortBy:
		return []string{string(models.SortByCreatedAt), string(models.SortByTitle), string(models.SortByText)}
	case FieldSortDirection:
		return []string{string(models.Asc), string(models.Desc)}
	case FieldHighlightColor:
		out := make([]string, len(models.Colors))
		for i, c := range models.Colors {
			out[i] = string(c)
		}
		return out
	}
	return nil
}

// Validate checks value against the field's allowed options.
func (f Field) Validate(value string) error {
	opts := f.Options()
	if opts == nil {
		return fmt.Errorf("settings: unknown field %q: %w", f, apperr.ErrValidation)
	}
	in := make([]any, len(opts))
	for i, o := range opts {
		in[i] = o
	}
	if err := validation.Validate(value, validation.Required, validation.In(in...)); err != nil {
		return fmt.Errorf("settings: %s: %w: %w", f, apperr.ErrValidation, err)
	}
	return nil
}

// Value reads the field from s.
func (f Field) Value(s models.Settings) string {
	switch f {
	case FieldSortBy:
		return string(s.SortBy)
	case FieldSortDirection:
		return string(s.SortDirection)
	case FieldHighlightColor:
		return string(s.SearchHighlightColor)
	}
	return ""
}

func (f Field) apply(s *models.Settings, value string) {
	switch f {
	case FieldSortBy:
		s.SortBy = models.SortField(value)
	case FieldSortDirection:
		s.SortDirection = models.SortDirection(value)
	case FieldHighlightColor:
		s.SearchHighlightColor = models.Color(value)
	}
}
