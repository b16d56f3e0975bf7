package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"collab-notes-server/internal/presence"
	"collab-notes-server/internal/websocket"
	"collab-notes-server/pkg/jwt"

	ws "github.com/gorilla/websocket"
)

const testSecret = "ws-handler-test-secret"

func startTestHub(t *testing.T) (*httptest.Server, *presence.Registry) {
	t.Helper()

	registry := presence.NewRegistry()
	manager := websocket.NewManager(5*time.Second, 30*time.Second, 25*time.Second)
	manager.SetMessageHandler(NewPresenceHandler(manager, registry))
	go manager.Run()

	wsHandler := NewWebSocketHandler(manager, testSecret)
	server := httptest.NewServer(http.HandlerFunc(wsHandler.HandleConnection))
	t.Cleanup(server.Close)

	return server, registry
}

func dialTest(t *testing.T, server *httptest.Server, userID, username string) *ws.Conn {
	t.Helper()

	token, err := jwt.GenerateToken(userID, username, time.Hour, testSecret)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + token
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	sendEvent(t, conn, websocket.TypeUserJoin, &websocket.UserJoinPayload{UserID: userID, Username: username})
	return conn
}

func sendEvent(t *testing.T, conn *ws.Conn, msgType websocket.MessageType, payload interface{}) {
	t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("failed to build %s message: %v", msgType, err)
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// readUntil drains messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *ws.Conn, msgType websocket.MessageType) *websocket.Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg websocket.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("timed out waiting for %s: %v", msgType, err)
		}
		if msg.Type == msgType {
			return &msg
		}
	}
}

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	server, _ := startTestHub(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := ws.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake to fail without token")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Errorf("expected 401, got %+v", resp)
	}
}

func TestWebSocket_JoinBroadcastsRoster(t *testing.T) {
	server, _ := startTestHub(t)

	alice := dialTest(t, server, "u1", "alice")

	msg := readUntil(t, alice, websocket.TypeActiveUsers)

	var payload websocket.ActiveUsersPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	if len(payload.Users) != 1 || payload.Users[0].Username != "alice" {
		t.Errorf("expected roster [alice], got %+v", payload.Users)
	}
}

func TestWebSocket_EditingFlow(t *testing.T) {
	server, _ := startTestHub(t)

	alice := dialTest(t, server, "u1", "alice")
	bob := dialTest(t, server, "u2", "bob")

	sendEvent(t, alice, websocket.TypeStartEditing, &websocket.StartEditingPayload{NoteID: "n1", UserID: "u1"})
	readUntil(t, alice, websocket.TypeNoteEditors)

	sendEvent(t, bob, websocket.TypeStartEditing, &websocket.StartEditingPayload{NoteID: "n1", UserID: "u2"})

	msg := readUntil(t, alice, websocket.TypeNoteEditors)
	var editors websocket.NoteEditorsPayload
	if err := msg.UnmarshalPayload(&editors); err != nil {
		t.Fatalf("failed to unmarshal editors: %v", err)
	}
	if editors.NoteID != "n1" || len(editors.Editors) != 2 {
		t.Fatalf("expected 2 editors on n1, got %+v", editors)
	}

	// An edit from alice reaches bob but never echoes back to alice.
	sendEvent(t, alice, websocket.TypeNoteEdit, &websocket.NoteEditPayload{NoteID: "n1", UserID: "u1", Content: "hello"})

	updated := readUntil(t, bob, websocket.TypeNoteUpdated)
	var update websocket.NoteUpdatedPayload
	if err := updated.UnmarshalPayload(&update); err != nil {
		t.Fatalf("failed to unmarshal update: %v", err)
	}
	if update.Content != "hello" || update.UserID != "u1" {
		t.Errorf("expected forwarded edit from u1, got %+v", update)
	}

	// Bob leaving shrinks the editor list back down for alice.
	sendEvent(t, bob, websocket.TypeStopEditing, &websocket.StopEditingPayload{NoteID: "n1", UserID: "u2"})

	msg = readUntil(t, alice, websocket.TypeNoteEditors)
	if err := msg.UnmarshalPayload(&editors); err != nil {
		t.Fatalf("failed to unmarshal editors: %v", err)
	}
	if len(editors.Editors) != 1 || editors.Editors[0].ID != "u1" {
		t.Errorf("expected editors [u1] after stop, got %+v", editors.Editors)
	}
}

func TestWebSocket_DisconnectCleansPresence(t *testing.T) {
	server, registry := startTestHub(t)

	alice := dialTest(t, server, "u1", "alice")
	bob := dialTest(t, server, "u2", "bob")

	sendEvent(t, alice, websocket.TypeStartEditing, &websocket.StartEditingPayload{NoteID: "n1", UserID: "u1"})
	readUntil(t, alice, websocket.TypeNoteEditors)
	sendEvent(t, bob, websocket.TypeStartEditing, &websocket.StartEditingPayload{NoteID: "n1", UserID: "u2"})
	readUntil(t, alice, websocket.TypeNoteEditors)

	bob.Close()

	// Alice sees the shrunk editor list and the shrunk roster.
	msg := readUntil(t, alice, websocket.TypeNoteEditors)
	var editors websocket.NoteEditorsPayload
	if err := msg.UnmarshalPayload(&editors); err != nil {
		t.Fatalf("failed to unmarshal editors: %v", err)
	}
	if len(editors.Editors) != 1 || editors.Editors[0].ID != "u1" {
		t.Errorf("expected editors [u1] after disconnect, got %+v", editors.Editors)
	}

	rosterMsg := readUntil(t, alice, websocket.TypeActiveUsers)
	var roster websocket.ActiveUsersPayload
	if err := rosterMsg.UnmarshalPayload(&roster); err != nil {
		t.Fatalf("failed to unmarshal roster: %v", err)
	}
	if len(roster.Users) != 1 || roster.Users[0].UserID != "u1" {
		t.Errorf("expected roster [u1] after disconnect, got %+v", roster.Users)
	}

	if ids := registry.EditorIDs("n1"); len(ids) != 1 || ids[0] != "u1" {
		t.Errorf("registry still references the disconnected user: %v", ids)
	}
}
