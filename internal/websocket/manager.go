package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"collab-notes-server/internal/metrics"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// MessageHandler receives decoded events plus disconnect notifications. Both
// are dispatched from the manager's run loop, one at a time.
type MessageHandler interface {
	HandleEvent(client *Client, msg *Message) error
	HandleDisconnect(client *Client)
}

// Manager is the connection hub: it owns the client table and the per-note
// rooms, and serializes register/unregister/inbound events over channels.
type Manager struct {
	clients        map[string]*Client
	rooms          map[string]map[string]*Client
	mu             sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	messageHandler MessageHandler
}

func NewManager(writeWait, pongWait, pingPeriod time.Duration) *Manager {
	return &Manager{
		clients:       make(map[string]*Client),
		rooms:         make(map[string]map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		HandleMessage: make(chan *ClientMessage),
		writeWait:     writeWait,
		pongWait:      pongWait,
		pingPeriod:    pingPeriod,
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.mu.Lock()
	m.clients[client.ID] = client
	m.mu.Unlock()

	metrics.ActiveConnections.Inc()
	log.Printf("client connected: %s", client.ID)
}

func (m *Manager) unregisterClient(client *Client) {
	m.mu.Lock()
	if _, ok := m.clients[client.ID]; !ok {
		m.mu.Unlock()
		return
	}

	delete(m.clients, client.ID)
	for noteID, room := range m.rooms {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(m.rooms, noteID)
		}
	}
	close(client.Send)
	m.mu.Unlock()

	metrics.ActiveConnections.Dec()
	log.Printf("client disconnected: %s", client.ID)

	if m.messageHandler != nil {
		m.messageHandler.HandleDisconnect(client)
	}
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		log.Printf("error unmarshaling message: %v", err)
		return
	}

	if m.messageHandler != nil {
		if err := m.messageHandler.HandleEvent(clientMsg.Client, &msg); err != nil {
			log.Printf("error handling %s event: %v", msg.Type, err)
		}
	}
}

// JoinRoom subscribes a connection to a note's broadcast group.
func (m *Manager) JoinRoom(noteID string, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms[noteID] == nil {
		m.rooms[noteID] = make(map[string]*Client)
	}
	m.rooms[noteID][client.ID] = client
}

// LeaveRoom unsubscribes a connection; empty rooms are discarded. Leaving a
// room the connection never joined is a no-op.
func (m *Manager) LeaveRoom(noteID string, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[noteID]
	if !ok {
		return
	}
	delete(room, client.ID)
	if len(room) == 0 {
		delete(m.rooms, noteID)
	}
}

// BroadcastAll sends a message to every connected client.
func (m *Manager) BroadcastAll(message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		m.send(client, messageBytes)
	}

	metrics.BroadcastEvents.WithLabelValues(string(message.Type)).Inc()
	return nil
}

// BroadcastToRoom sends a message to every connection in a note's room,
// optionally excluding the originator.
func (m *Manager) BroadcastToRoom(noteID string, message *Message, exclude *Client) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[noteID]
	if !ok {
		return nil
	}

	for _, client := range room {
		if exclude != nil && client.ID == exclude.ID {
			continue
		}
		m.send(client, messageBytes)
	}

	metrics.BroadcastEvents.WithLabelValues(string(message.Type)).Inc()
	return nil
}

// send is best effort: a full send buffer drops the message. Dead connections
// are only cleaned up when the transport reports the disconnect.
func (m *Manager) send(client *Client, messageBytes []byte) {
	select {
	case client.Send <- messageBytes:
	default:
		log.Printf("client %s send buffer full, dropping message", client.ID)
		metrics.DroppedMessages.Inc()
	}
}
