package client

import (
	"fmt"
	"net/url"
	"strings"

	ws "collab-notes-server/internal/websocket"

	"github.com/gorilla/websocket"
)

// Session is a live presence connection. Events arriving from the server are
// delivered on Events; the channel closes when the connection drops.
type Session struct {
	conn   *websocket.Conn
	userID string
	Events chan *ws.Message
}

// Dial opens the websocket, authenticates with the session token and declares
// the user's identity with a user_join event.
func Dial(serverURL, token, userID, username string) (*Session, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	s := &Session{
		conn:   conn,
		userID: userID,
		Events: make(chan *ws.Message, 64),
	}

	if err := s.send(ws.TypeUserJoin, &ws.UserJoinPayload{UserID: userID, Username: username}); err != nil {
		conn.Close()
		return nil, err
	}

	go s.readLoop()
	return s, nil
}

func (s *Session) StartEditing(noteID string) error {
	return s.send(ws.TypeStartEditing, &ws.StartEditingPayload{NoteID: noteID, UserID: s.userID})
}

func (s *Session) StopEditing(noteID string) error {
	return s.send(ws.TypeStopEditing, &ws.StopEditingPayload{NoteID: noteID, UserID: s.userID})
}

// SendEdit broadcasts raw content to the note's room. It does not persist
// anything; pair it with a debounced UpdateNote call.
func (s *Session) SendEdit(noteID, content string, cursorPosition *int) error {
	return s.send(ws.TypeNoteEdit, &ws.NoteEditPayload{
		NoteID:         noteID,
		UserID:         s.userID,
		Content:        content,
		CursorPosition: cursorPosition,
	})
}

func (s *Session) SendCursor(noteID string, position int) error {
	return s.send(ws.TypeCursorMove, &ws.CursorMovePayload{
		NoteID:   noteID,
		UserID:   s.userID,
		Position: position,
	})
}

func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) send(msgType ws.MessageType, payload interface{}) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return s.conn.WriteJSON(msg)
}

func (s *Session) readLoop() {
	defer close(s.Events)

	for {
		var msg ws.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case s.Events <- &msg:
		default:
			// Slow consumer: drop rather than stall the read loop.
		}
	}
}
