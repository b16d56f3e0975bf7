package websocket

import (
	"encoding/json"
	"time"

	"collab-notes-server/internal/domain"
	"collab-notes-server/internal/presence"
)

type MessageType string

// Client → server events.
const (
	TypeUserJoin     MessageType = "user_join"
	TypeStartEditing MessageType = "start_editing"
	TypeNoteEdit     MessageType = "note_edit"
	TypeCursorMove   MessageType = "cursor_move"
	TypeStopEditing  MessageType = "stop_editing"
)

// Server → client events.
const (
	TypeActiveUsers MessageType = "active_users"
	TypeNoteEditors MessageType = "note_editors"
	TypeNoteUpdated MessageType = "note_updated"
	TypeCursorMoved MessageType = "cursor_moved"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type UserJoinPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type StartEditingPayload struct {
	NoteID string `json:"noteId"`
	UserID string `json:"userId"`
}

type StopEditingPayload struct {
	NoteID string `json:"noteId"`
	UserID string `json:"userId"`
}

// NoteEditPayload carries raw content, forwarded verbatim to the note's room
// as a note_updated event. This path never touches the database.
type NoteEditPayload struct {
	NoteID         string `json:"noteId"`
	UserID         string `json:"userId"`
	Content        string `json:"content"`
	CursorPosition *int   `json:"cursorPosition,omitempty"`
}

type CursorMovePayload struct {
	NoteID   string `json:"noteId"`
	UserID   string `json:"userId"`
	Position int    `json:"position"`
}

type ActiveUsersPayload struct {
	Users []presence.ActiveUser `json:"users"`
}

type NoteEditorsPayload struct {
	NoteID  string           `json:"noteId"`
	Editors []domain.UserRef `json:"editors"`
}

type NoteUpdatedPayload struct {
	NoteID         string `json:"noteId"`
	UserID         string `json:"userId"`
	Content        string `json:"content"`
	CursorPosition *int   `json:"cursorPosition,omitempty"`
}

type CursorMovedPayload struct {
	NoteID   string `json:"noteId"`
	UserID   string `json:"userId"`
	Position int    `json:"position"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
