package api

import (
	"time"

	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/search"
)

// NoteView is a note as returned by the API. The password hash is never
// exposed; the body is empty while the note is locked.
type NoteView struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Text         string     `json:"text"`
	Tags         []string   `json:"tags"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastModified time.Time  `json:"lastModified"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty"`
	Locked       bool       `json:"locked"`
}

// viewOf renders n. revealed means the caller passed the lock gate.
func viewOf(n models.Note, revealed bool) NoteView {
	v := NoteView{
		ID:           n.ID,
		Title:        n.Title,
		Text:         n.Text,
		Tags:         n.Tags,
		CreatedAt:    n.CreatedAt,
		LastModified: n.LastModified,
		DeletedAt:    n.DeletedAt,
		Locked:       n.Locked(),
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if v.Locked && !revealed {
		v.Text = ""
	}
	return v
}

func listViews(notes []models.Note) []NoteView {
	out := make([]NoteView, len(notes))
	for i, n := range notes {
		out[i] = viewOf(n, false)
	}
	return out
}

// NoteListResponse is returned by list endpoints.
type NoteListResponse struct {
	Notes []NoteView `json:"notes"`
	Total int        `json:"total"`
}

// CreateNoteRequest is the body of POST /notes.
type CreateNoteRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// UpdateNoteRequest is the body of PUT /notes/{id}. Tags is left unchanged
// when omitted.
type UpdateNoteRequest struct {
	Title string    `json:"title"`
	Text  string    `json:"text"`
	Tags  *[]string `json:"tags,omitempty"`
}

// SecretRequest carries a password to set.
type SecretRequest struct {
	Password string `json:"password"`
}

// TagRequest is the body of tag create and rename.
type TagRequest struct {
	Text string `json:"text"`
}

// ApplyTagRequest is the body of POST /notes/{id}/tags.
type ApplyTagRequest struct {
	TagID string `json:"tagId"`
}

// SearchHit is one search result.
type SearchHit struct {
	Note   NoteView      `json:"note"`
	Locked bool          `json:"locked"`
	Spans  []search.Span `json:"spans,omitempty"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Query   string      `json:"query"`
	Mode    search.Mode `json:"mode"`
	Results []SearchHit `json:"results"`
}

// SettingsView hides the main password hash.
type SettingsView struct {
	SortBy               models.SortField     `json:"sortBy"`
	SortDirection        models.SortDirection `json:"sortDirection"`
	SearchHighlightColor models.Color         `json:"searchHighlightColor"`
	MainPasswordSet      bool                 `json:"mainPasswordSet"`
}

func settingsView(s models.Settings) SettingsView {
	return SettingsView{
		SortBy:               s.SortBy,
		SortDirection:        s.SortDirection,
		SearchHighlightColor: s.SearchHighlightColor,
		MainPasswordSet:      s.HasMainPassword(),
	}
}

// ShareResponse reports the delivery time of a shared note.
type ShareResponse struct {
	SentAt time.Time `json:"sentAt"`
}
