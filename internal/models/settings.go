package models

// SortField selects the note field used for ordering.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByTitle     SortField = "title"
	SortByText      SortField = "text"
)

// SortDirection is the ordering direction. Desc is the default.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Color names a highlight color understood by the renderer.
type Color string

const (
	ColorRed     Color = "red"
	ColorGreen   Color = "green"
	ColorYellow  Color = "yellow"
	ColorBlue    Color = "blue"
	ColorMagenta Color = "magenta"
	ColorCyan    Color = "cyan"
	ColorWhite   Color = "white"
)

// Colors lists every supported highlight color.
var Colors = []Color{ColorRed, ColorGreen, ColorYellow, ColorBlue, ColorMagenta, ColorCyan, ColorWhite}

// Settings is the singleton preferences record.
type Settings struct {
	ID                   string        `json:"id"`
	SortBy               SortField     `json:"sortBy"`
	SortDirection        SortDirection `json:"sortDirection"`
	SearchHighlightColor Color         `json:"searchHighlightColor"`
	MainPassword         string        `json:"mainPassword,omitempty"`
}

// DefaultSettings returns the settings used when none are stored yet.
func DefaultSettings() Settings {
	return Settings{
		SortBy:               SortByCreatedAt,
		SortDirection:        Desc,
		SearchHighlightColor: ColorRed,
	}
}

// HasMainPassword reports whether a shared main password is configured.
func (s Settings) HasMainPassword() bool {
	return s.MainPassword != ""
}
