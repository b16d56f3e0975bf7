package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"collab-notes-server/internal/domain"
	"collab-notes-server/internal/service"
	"collab-notes-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type NoteHandler struct {
	noteService *service.NoteService
	validate    *validator.Validate
}

func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		validate:    validator.New(),
	}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "Title and userId are required")
		return
	}

	note, err := h.noteService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "Failed to create note")
		return
	}

	response.JSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := &domain.ListNotesQuery{
		UserID: q.Get("userId"),
		Tag:    q.Get("tag"),
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}

	notes, err := h.noteService.List(r.Context(), query)
	if err != nil {
		writeServiceError(w, err, "Failed to list notes")
		return
	}

	if notes == nil {
		notes = []*domain.NoteResponse{}
	}
	response.JSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	note, err := h.noteService.GetByID(r.Context(), noteID)
	if err != nil {
		writeServiceError(w, err, "Failed to fetch note")
		return
	}

	response.JSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	var req domain.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "User ID is required")
		return
	}

	note, err := h.noteService.Update(r.Context(), noteID, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to update note")
		return
	}

	response.JSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID := mux.Vars(r)["id"]

	var req domain.DeleteNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "User ID is required")
		return
	}

	if err := h.noteService.Delete(r.Context(), noteID, req.UserID); err != nil {
		writeServiceError(w, err, "Failed to delete note")
		return
	}

	response.Message(w, http.StatusOK, "Note deleted successfully")
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case service.IsValidation(err):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrMalformedID):
		response.BadRequest(w, "Invalid note ID")
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(w, "Note not found")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(w, "Only the creator can delete this note")
	default:
		response.InternalError(w, fallback)
	}
}
