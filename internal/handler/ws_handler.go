package handler

import (
	"log"
	"net/http"

	"collab-notes-server/internal/domain"
	"collab-notes-server/internal/presence"
	"collab-notes-server/internal/websocket"
	"collab-notes-server/pkg/jwt"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

// WebSocketHandler upgrades /ws requests. The session token from login is
// required for the handshake; the connection's working identity is still
// declared afterwards by a user_join event.
type WebSocketHandler struct {
	manager     *websocket.Manager
	tokenSecret string
	upgrader    ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager, tokenSecret string) *WebSocketHandler {
	return &WebSocketHandler{
		manager:     manager,
		tokenSecret: tokenSecret,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}

	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}

	if _, err := jwt.ValidateToken(token, h.tokenSecret); err != nil {
		log.Printf("[ws] token validation failed: %v", err)
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] failed to upgrade connection: %v", err)
		return
	}

	client := websocket.NewClient(uuid.New().String(), conn, h.manager)
	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// PresenceHandler is the per-connection event state machine: a fixed
// event→transition table over the presence registry and the hub's rooms.
// Unknown or out-of-order events are dropped without error.
type PresenceHandler struct {
	manager     *websocket.Manager
	registry    *presence.Registry
	transitions map[websocket.MessageType]func(*websocket.Client, *websocket.Message) error
}

func NewPresenceHandler(manager *websocket.Manager, registry *presence.Registry) *PresenceHandler {
	h := &PresenceHandler{
		manager:  manager,
		registry: registry,
	}
	h.transitions = map[websocket.MessageType]func(*websocket.Client, *websocket.Message) error{
		websocket.TypeUserJoin:     h.handleUserJoin,
		websocket.TypeStartEditing: h.handleStartEditing,
		websocket.TypeNoteEdit:     h.handleNoteEdit,
		websocket.TypeCursorMove:   h.handleCursorMove,
		websocket.TypeStopEditing:  h.handleStopEditing,
	}
	return h
}

func (h *PresenceHandler) HandleEvent(client *websocket.Client, msg *websocket.Message) error {
	transition, ok := h.transitions[msg.Type]
	if !ok {
		log.Printf("[ws] ignoring unknown event type: %s", msg.Type)
		return nil
	}
	return transition(client, msg)
}

func (h *PresenceHandler) handleUserJoin(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.UserJoinPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}
	if payload.UserID == "" {
		return nil
	}

	client.UserID = payload.UserID
	client.Username = payload.Username
	h.registry.AddUser(payload.UserID, payload.Username, client.ID)

	log.Printf("[ws] %s joined (%d active)", payload.Username, len(h.registry.Roster()))
	return h.broadcastRoster()
}

func (h *PresenceHandler) handleStartEditing(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.StartEditingPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}
	if payload.NoteID == "" || payload.UserID == "" {
		return nil
	}

	h.manager.JoinRoom(payload.NoteID, client)
	h.registry.StartEditing(payload.NoteID, payload.UserID)

	return h.broadcastEditors(payload.NoteID)
}

func (h *PresenceHandler) handleNoteEdit(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.NoteEditPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}
	if payload.NoteID == "" {
		return nil
	}

	// Forwarded verbatim to the rest of the room; persistence is the
	// originating client's debounced REST call, not this path.
	out, err := websocket.NewMessage(websocket.TypeNoteUpdated, &websocket.NoteUpdatedPayload{
		NoteID:         payload.NoteID,
		UserID:         payload.UserID,
		Content:        payload.Content,
		CursorPosition: payload.CursorPosition,
	})
	if err != nil {
		return err
	}

	return h.manager.BroadcastToRoom(payload.NoteID, out, client)
}

func (h *PresenceHandler) handleCursorMove(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.CursorMovePayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}
	if payload.NoteID == "" {
		return nil
	}

	out, err := websocket.NewMessage(websocket.TypeCursorMoved, &websocket.CursorMovedPayload{
		NoteID:   payload.NoteID,
		UserID:   payload.UserID,
		Position: payload.Position,
	})
	if err != nil {
		return err
	}

	return h.manager.BroadcastToRoom(payload.NoteID, out, client)
}

func (h *PresenceHandler) handleStopEditing(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.StopEditingPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}
	if payload.NoteID == "" {
		return nil
	}

	h.manager.LeaveRoom(payload.NoteID, client)

	if remaining := h.registry.StopEditing(payload.NoteID, payload.UserID); remaining {
		return h.broadcastEditors(payload.NoteID)
	}
	return nil
}

// HandleDisconnect runs after the manager has already dropped the connection
// from its client table and rooms.
func (h *PresenceHandler) HandleDisconnect(client *websocket.Client) {
	user, touched, ok := h.registry.RemoveConn(client.ID)
	if !ok {
		return
	}

	log.Printf("[ws] %s disconnected", user.Username)

	for _, noteID := range touched {
		if err := h.broadcastEditors(noteID); err != nil {
			log.Printf("[ws] failed to broadcast editors for note %s: %v", noteID, err)
		}
	}

	if err := h.broadcastRoster(); err != nil {
		log.Printf("[ws] failed to broadcast roster: %v", err)
	}
}

func (h *PresenceHandler) broadcastRoster() error {
	msg, err := websocket.NewMessage(websocket.TypeActiveUsers, &websocket.ActiveUsersPayload{
		Users: h.registry.Roster(),
	})
	if err != nil {
		return err
	}
	return h.manager.BroadcastAll(msg)
}

func (h *PresenceHandler) broadcastEditors(noteID string) error {
	active := h.registry.Editors(noteID)
	editors := make([]domain.UserRef, 0, len(active))
	for _, u := range active {
		editors = append(editors, domain.UserRef{ID: u.UserID, Username: u.Username})
	}

	msg, err := websocket.NewMessage(websocket.TypeNoteEditors, &websocket.NoteEditorsPayload{
		NoteID:  noteID,
		Editors: editors,
	})
	if err != nil {
		return err
	}
	return h.manager.BroadcastToRoom(noteID, msg, nil)
}
