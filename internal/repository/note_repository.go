package repository

import (
	"context"
	"fmt"
	"net/http"

	"collab-notes-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// NoteFilter narrows List down at the database level. Substring search and
// sorting happen in the service; Mango handles membership and tag selectors.
type NoteFilter struct {
	UserID string
	Tag    string
}

type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	FindByID(ctx context.Context, id string) (*domain.Note, error)
	List(ctx context.Context, filter NoteFilter) ([]*domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, id string) error
}

type noteRepository struct {
	client *kivik.Client
	dbName string
}

func NewNoteRepository(client *kivik.Client, dbName string) NoteRepository {
	return &noteRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("note:%s", note.ID)
	if _, err := db.Put(ctx, docID, note); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

func (r *noteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	db := r.client.DB(r.dbName)

	docID := fmt.Sprintf("note:%s", id)
	row := db.Get(ctx, docID)

	var note domain.Note
	if err := row.ScanDoc(&note); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}

	return &note, nil
}

func (r *noteRepository) List(ctx context.Context, filter NoteFilter) ([]*domain.Note, error) {
	db := r.client.DB(r.dbName)

	selector := map[string]interface{}{
		"type": domain.DocTypeNote,
	}

	if filter.UserID != "" {
		selector["$or"] = []map[string]interface{}{
			{"creator_id": filter.UserID},
			{"editor_ids": map[string]interface{}{
				"$elemMatch": map[string]interface{}{"$eq": filter.UserID},
			}},
		}
	}

	if filter.Tag != "" {
		selector["tags"] = map[string]interface{}{
			"$elemMatch": map[string]interface{}{"$eq": filter.Tag},
		}
	}

	query := map[string]interface{}{
		"selector": selector,
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.ScanDoc(&note); err != nil {
			continue
		}
		notes = append(notes, &note)
	}

	return notes, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("note:%s", note.ID)

	var existingDoc map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch existing note for update: %w", err)
	}

	existingDoc["title"] = note.Title
	existingDoc["content"] = note.Content
	existingDoc["tags"] = note.Tags
	existingDoc["editor_ids"] = note.EditorIDs
	existingDoc["updated_at"] = note.UpdatedAt

	if _, err := db.Put(ctx, docID, existingDoc); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	return nil
}

func (r *noteRepository) Delete(ctx context.Context, id string) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("note:%s", id)

	row := db.Get(ctx, docID)

	var existingDoc map[string]interface{}
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch note for delete: %w", err)
	}

	rev, _ := existingDoc["_rev"].(string)
	if _, err := db.Delete(ctx, docID, rev); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return nil
}
