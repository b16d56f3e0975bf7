package domain

import "time"

// Note is the stored document. CreatorID is immutable after creation and is
// always a member of EditorIDs. EditorIDs only ever grows.
type Note struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatorID string    `json:"creator_id"`
	EditorIDs []string  `json:"editor_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasEditor reports whether userID is already in the editors set.
func (n *Note) HasEditor(userID string) bool {
	for _, id := range n.EditorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type CreateNoteRequest struct {
	Title   string   `json:"title" validate:"required"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	UserID  string   `json:"userId" validate:"required"`
}

// UpdateNoteRequest distinguishes "field not provided" (nil) from an explicit
// empty value, which matters for content.
type UpdateNoteRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
	UserID  string    `json:"userId" validate:"required"`
}

type DeleteNoteRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// Sort orders accepted by the list endpoint.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortUpdated = "updated"
)

// ListNotesQuery carries the optional filters of GET /api/notes.
type ListNotesQuery struct {
	UserID string
	Tag    string
	Search string
	Sort   string
}

// NoteResponse denormalizes creator and editors to {id, username} pairs.
type NoteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Creator   UserRef   `json:"creator"`
	Editors   []UserRef `json:"editors"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
