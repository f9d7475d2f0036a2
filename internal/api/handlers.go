package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notekeeper/internal/keeper"
	"github.com/starford/notekeeper/internal/lockgate"
	"github.com/starford/notekeeper/internal/models"
	"github.com/starford/notekeeper/internal/search"
	"github.com/starford/notekeeper/internal/settings"
)

// Handler holds API route handlers.
type Handler struct {
	svc *keeper.Services
}

// NewHandler creates a new Handler.
func NewHandler(svc *keeper.Services) *Handler {
	return &Handler{svc: svc}
}

// openNote loads an active note and passes it through the lock gate with
// the request's candidate password.
func (h *Handler) openNote(w http.ResponseWriter, r *http.Request, op string) (models.Note, bool) {
	id := chi.URLParam(r, "id")
	note, err := h.svc.Notes.Get(r.Context(), id)
	if err != nil {
		writeError(w, op, err)
		return models.Note{}, false
	}
	if err := h.svc.Gate.Check(r.Context(), note, candidate(r)); err != nil {
		writeError(w, op, err)
		return models.Note{}, false
	}
	return note, true
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List active notes in the configured order
//	@Tags			notes
//	@Produce		json
//	@Param			tag	query		string	false	"Only notes carrying this tag id"
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		notes []models.Note
		err   error
	)
	if tag := r.URL.Query().Get("tag"); tag != "" {
		notes, err = h.svc.Tags.FilterByTag(ctx, tag)
	} else {
		notes, err = h.svc.Notes.List(ctx)
	}
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	st, err := h.svc.Settings.Get(ctx)
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	notes = search.SortNotesBy(notes, st.SortBy, st.SortDirection)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: listViews(notes), Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a note; locked notes need X-Note-Password
//	@Tags			notes
//	@Produce		json
//	@Param			id					path		string	true	"Note id"
//	@Param			X-Note-Password		header		string	false	"Password of a locked note"
//	@Success		200	{object}	NoteView
//	@Failure		403	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		423	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.openNote(w, r, "get note")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(note, true))
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteView
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.Notes.Save(r.Context(), models.Note{Title: req.Title, Text: req.Text})
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(note, true))
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update title, text and optionally tags
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		UpdateNoteRequest	true	"New content"
//	@Success		200		{object}	NoteView
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		423		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, ok := h.openNote(w, r, "update note")
	if !ok {
		return
	}
	note.Title, note.Text = req.Title, req.Text
	if req.Tags != nil {
		note.Tags = *req.Tags
	}
	saved, err := h.svc.Notes.Save(r.Context(), note)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(saved, true))
}

// TrashNote handles DELETE /api/notes/{id}.
//
//	@Summary		Move a note to the trash
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteView
//	@Failure		403	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		423	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) TrashNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.openNote(w, r, "trash note")
	if !ok {
		return
	}
	trashed, err := h.svc.Notes.MoveToTrash(r.Context(), note.ID)
	if err != nil {
		writeError(w, "trash note", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(trashed, false))
}

// LockNote handles POST /api/notes/{id}/lock. Re-locking an already locked
// note requires its current password.
//
//	@Summary		Lock a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		SecretRequest	true	"New password; ignored when a main password is set"
//	@Success		200		{object}	NoteView
//	@Security		BearerAuth
//	@Router			/notes/{id}/lock [post]
func (h *Handler) LockNote(w http.ResponseWriter, r *http.Request) {
	var req SecretRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, ok := h.openNote(w, r, "lock note")
	if !ok {
		return
	}
	locked, err := h.svc.Passwords.Lock(r.Context(), note, req.Password)
	if err != nil {
		writeError(w, "lock note", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(locked, false))
}

// UnlockNote handles DELETE /api/notes/{id}/lock.
//
//	@Summary		Remove the lock of a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteView
//	@Security		BearerAuth
//	@Router			/notes/{id}/lock [delete]
func (h *Handler) UnlockNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.openNote(w, r, "unlock note")
	if !ok {
		return
	}
	open, err := h.svc.Passwords.RemoveLock(r.Context(), note)
	if err != nil {
		writeError(w, "unlock note", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(open, true))
}

// ApplyTag handles POST /api/notes/{id}/tags.
//
//	@Summary		Attach a tag to a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		ApplyTagRequest	true	"Tag to attach"
//	@Success		200		{object}	NoteView
//	@Security		BearerAuth
//	@Router			/notes/{id}/tags [post]
func (h *Handler) ApplyTag(w http.ResponseWriter, r *http.Request) {
	var req ApplyTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.Tags.ApplyTag(r.Context(), chi.URLParam(r, "id"), req.TagID, lockgate.Once(candidate(r)))
	if err != nil {
		writeError(w, "apply tag", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(note, true))
}

// ShareNote handles POST /api/notes/{id}/share.
//
//	@Summary		Send a note by SMS
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	ShareResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/share [post]
func (h *Handler) ShareNote(w http.ResponseWriter, r *http.Request) {
	at, err := h.svc.Share.Share(r.Context(), chi.URLParam(r, "id"), lockgate.Once(candidate(r)))
	if err != nil {
		writeError(w, "share note", err)
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{SentAt: at})
}

// Search handles GET /api/search.
//
//	@Summary		Search by date (D.M.YYYY), title or text
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	res, err := h.svc.Search.Search(r.Context(), q, lockgate.Once(candidate(r)))
	if err != nil {
		writeError(w, "search", err)
		return
	}
	out := SearchResponse{Query: res.Query, Mode: res.Mode, Results: make([]SearchHit, len(res.Hits))}
	for i, hit := range res.Hits {
		out.Results[i] = SearchHit{Note: viewOf(hit.Note, !hit.Locked), Locked: hit.Locked, Spans: hit.Spans}
		out.Results[i].Note.Locked = hit.Locked
	}
	writeJSON(w, http.StatusOK, out)
}

// ListTrash handles GET /api/trash.
//
//	@Summary		List trashed notes
//	@Tags			trash
//	@Produce		json
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/trash [get]
func (h *Handler) ListTrash(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Notes.ListTrash(r.Context())
	if err != nil {
		writeError(w, "list trash", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: listViews(notes), Total: len(notes)})
}

// GetTrashed handles GET /api/trash/{id}.
//
//	@Summary		Get a trashed note; locked notes need X-Note-Password
//	@Tags			trash
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteView
//	@Security		BearerAuth
//	@Router			/trash/{id} [get]
func (h *Handler) GetTrashed(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Notes.GetTrashed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get trashed", err)
		return
	}
	if err := h.svc.Gate.Check(r.Context(), note, candidate(r)); err != nil {
		writeError(w, "get trashed", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(note, true))
}

// RestoreNote handles POST /api/trash/{id}/restore.
//
//	@Summary		Restore a note from the trash
//	@Tags			trash
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	NoteView
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trash/{id}/restore [post]
func (h *Handler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Notes.RestoreFromTrash(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "restore note", err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(note, false))
}

// PurgeNote handles DELETE /api/trash/{id}.
//
//	@Summary		Permanently delete a trashed note
//	@Tags			trash
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note purged"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trash/{id} [delete]
func (h *Handler) PurgeNote(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Notes.Purge(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "purge note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmptyTrash handles DELETE /api/trash.
//
//	@Summary		Purge every trashed note
//	@Tags			trash
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Security		BearerAuth
//	@Router			/trash [delete]
func (h *Handler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notes.EmptyTrash(r.Context())
	if err != nil {
		writeError(w, "empty trash", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// ListTags handles GET /api/tags.
//
//	@Summary		List tags
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	map[string][]models.Tag
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.Tags.ListTags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	if all == nil {
		all = []models.Tag{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": all})
}

// CreateTag handles POST /api/tags.
//
//	@Summary		Create a tag
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TagRequest	true	"Tag label"
//	@Success		201		{object}	models.Tag
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags [post]
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, err := h.svc.Tags.AddTag(r.Context(), req.Text)
	if err != nil {
		writeError(w, "create tag", err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// RenameTag handles PUT /api/tags/{id}.
//
//	@Summary		Rename a tag
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Tag id"
//	@Param			body	body		TagRequest	true	"New label"
//	@Success		200		{object}	models.Tag
//	@Security		BearerAuth
//	@Router			/tags/{id} [put]
func (h *Handler) RenameTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tag, err := h.svc.Tags.EditTag(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, "rename tag", err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// DeleteTag handles DELETE /api/tags/{id}. Notes keep the tag id.
//
//	@Summary		Delete a tag
//	@Tags			tags
//	@Param			id	path	string	true	"Tag id"
//	@Success		204	"Tag deleted"
//	@Security		BearerAuth
//	@Router			/tags/{id} [delete]
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Tags.RemoveTag(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TaggedNotes handles GET /api/tags/{id}/notes.
//
//	@Summary		List notes carrying a tag
//	@Tags			tags
//	@Produce		json
//	@Param			id	path		string	true	"Tag id"
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/tags/{id}/notes [get]
func (h *Handler) TaggedNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Tags.FilterByTag(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "tagged notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: listViews(notes), Total: len(notes)})
}

// GetSettings handles GET /api/settings.
//
//	@Summary		Get settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsView
//	@Security		BearerAuth
//	@Router			/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Settings.Get(r.Context())
	if err != nil {
		writeError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settingsView(st))
}

// UpdateSettings handles PATCH /api/settings. The body maps field names to
// values; every pair is validated before any is written.
//
//	@Summary		Update settings fields
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		map[string]string	true	"Field values"
//	@Success		200		{object}	SettingsView
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [patch]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if !decodeJSON(w, r, &req) {
		return
	}
	fields := make(map[settings.Field]string, len(req))
	for name, value := range req {
		f, err := settings.ParseField(name)
		if err == nil {
			err = f.Validate(value)
		}
		if err != nil {
			writeError(w, "update settings", err)
			return
		}
		fields[f] = value
	}
	st, err := h.svc.Settings.Get(r.Context())
	for _, f := range settings.Fields() {
		if err != nil {
			break
		}
		if v, ok := fields[f]; ok {
			st, err = h.svc.Settings.Update(r.Context(), f, v)
		}
	}
	if err != nil {
		writeError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settingsView(st))
}

// SetMainPassword handles PUT /api/settings/main-password.
//
//	@Summary		Set the shared main password
//	@Tags			settings
//	@Accept			json
//	@Param			body	body	SecretRequest	true	"Main password"
//	@Success		204		"Main password set"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings/main-password [put]
func (h *Handler) SetMainPassword(w http.ResponseWriter, r *http.Request) {
	var req SecretRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Passwords.SetMainPassword(r.Context(), req.Password); err != nil {
		writeError(w, "set main password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearMainPassword handles DELETE /api/settings/main-password.
//
//	@Summary		Clear the shared main password
//	@Tags			settings
//	@Success		204	"Main password cleared"
//	@Security		BearerAuth
//	@Router			/settings/main-password [delete]
func (h *Handler) ClearMainPassword(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Passwords.ClearMainPassword(r.Context()); err != nil {
		writeError(w, "clear main password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
