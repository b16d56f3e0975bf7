package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"collab-notes-server/internal/domain"
	"collab-notes-server/internal/repository"
	"collab-notes-server/internal/service"

	"github.com/gorilla/mux"
)

type memNoteRepo struct {
	notes map[string]*domain.Note
}

func (m *memNoteRepo) Create(ctx context.Context, note *domain.Note) error {
	m.notes[note.ID] = note
	return nil
}

func (m *memNoteRepo) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	if n, ok := m.notes[id]; ok {
		copied := *n
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memNoteRepo) List(ctx context.Context, filter repository.NoteFilter) ([]*domain.Note, error) {
	var notes []*domain.Note
	for _, n := range m.notes {
		notes = append(notes, n)
	}
	return notes, nil
}

func (m *memNoteRepo) Update(ctx context.Context, note *domain.Note) error {
	if _, ok := m.notes[note.ID]; !ok {
		return repository.ErrNotFound
	}
	m.notes[note.ID] = note
	return nil
}

func (m *memNoteRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.notes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

type memUserRepo struct {
	users map[string]*domain.User
}

func (m *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	found := make(map[string]*domain.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			found[id] = u
		}
	}
	return found, nil
}

func (m *memUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func newTestRouter() (*mux.Router, *memNoteRepo) {
	noteRepo := &memNoteRepo{notes: make(map[string]*domain.Note)}
	userRepo := &memUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Type: domain.DocTypeUser, Username: "alice"},
		"u2": {ID: "u2", Type: domain.DocTypeUser, Username: "bob"},
	}}

	noteHandler := NewNoteHandler(service.NewNoteService(noteRepo, userRepo))

	r := mux.NewRouter()
	r.HandleFunc("/api/notes", noteHandler.Create).Methods("POST")
	r.HandleFunc("/api/notes", noteHandler.List).Methods("GET")
	r.HandleFunc("/api/notes/{id}", noteHandler.Get).Methods("GET")
	r.HandleFunc("/api/notes/{id}", noteHandler.Update).Methods("PUT")
	r.HandleFunc("/api/notes/{id}", noteHandler.Delete).Methods("DELETE")
	return r, noteRepo
}

func doJSON(r *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestNoteHandler_Create(t *testing.T) {
	router, _ := newTestRouter()

	rec := doJSON(router, http.MethodPost, "/api/notes", map[string]interface{}{
		"title": "A", "userId": "u1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var note domain.NoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &note); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if note.Creator.Username != "alice" {
		t.Errorf("expected denormalized creator alice, got %+v", note.Creator)
	}
}

func TestNoteHandler_Create_MissingFields(t *testing.T) {
	router, _ := newTestRouter()

	tests := []map[string]interface{}{
		{"title": "A"},
		{"userId": "u1"},
		{},
	}

	for i, body := range tests {
		if rec := doJSON(router, http.MethodPost, "/api/notes", body); rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}

func TestNoteHandler_StatusMapping(t *testing.T) {
	router, _ := newTestRouter()

	created := doJSON(router, http.MethodPost, "/api/notes", map[string]interface{}{
		"title": "A", "userId": "u1",
	})
	var note domain.NoteResponse
	json.Unmarshal(created.Body.Bytes(), &note)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"get existing", http.MethodGet, "/api/notes/" + note.ID, nil, http.StatusOK},
		{"get malformed id", http.MethodGet, "/api/notes/not-a-uuid", nil, http.StatusBadRequest},
		{"get missing", http.MethodGet, "/api/notes/00000000-0000-0000-0000-000000000000", nil, http.StatusNotFound},
		{"update without user", http.MethodPut, "/api/notes/" + note.ID, map[string]interface{}{"content": "x"}, http.StatusBadRequest},
		{"delete as non-creator", http.MethodDelete, "/api/notes/" + note.ID, map[string]interface{}{"userId": "u2"}, http.StatusForbidden},
		{"delete as creator", http.MethodDelete, "/api/notes/" + note.ID, map[string]interface{}{"userId": "u1"}, http.StatusOK},
		{"get after delete", http.MethodGet, "/api/notes/" + note.ID, nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := doJSON(router, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestNoteHandler_UpdateAddsEditor(t *testing.T) {
	router, repo := newTestRouter()

	created := doJSON(router, http.MethodPost, "/api/notes", map[string]interface{}{
		"title": "A", "userId": "u1",
	})
	var note domain.NoteResponse
	json.Unmarshal(created.Body.Bytes(), &note)

	rec := doJSON(router, http.MethodPut, "/api/notes/"+note.ID, map[string]interface{}{
		"content": "x", "userId": "u2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated domain.NoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Content != "x" {
		t.Errorf("expected content x, got %q", updated.Content)
	}
	if len(updated.Editors) != 2 {
		t.Errorf("expected 2 editors, got %+v", updated.Editors)
	}

	stored := repo.notes[note.ID]
	if fmt.Sprint(stored.EditorIDs) != "[u1 u2]" {
		t.Errorf("expected stored editors [u1 u2], got %v", stored.EditorIDs)
	}
}
