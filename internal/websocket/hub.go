package websocket

import (
	"context"
	"log"
	"sync"

	"trivia-service/internal/broadcast"
	"trivia-service/internal/models"
)

// Syncer is the per-session broadcaster slice the hub relays from.
type Syncer interface {
	GetCurrentGameState(ctx context.Context) (*models.GameState, error)
	Subscribe(handlers broadcast.Handlers)
	Cleanup() error
}

// Hub fans session events out to connected sockets. One Syncer
// subscription exists per session with at least one client; it is released
// when the last client leaves. Every client gets a full snapshot on
// register so a reconnect always reconciles missed events.
type Hub struct {
	clients map[string]map[*Client]bool
	relays  map[string]Syncer

	Register   chan *Client
	Unregister chan *Client

	newSync func(sessionID string) Syncer

	mu sync.RWMutex
}

func NewHub(newSync func(sessionID string) Syncer) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		relays:     make(map[string]Syncer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		newSync:    newSync,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.SessionID] == nil {
		h.clients[client.SessionID] = make(map[*Client]bool)
	}
	h.clients[client.SessionID][client] = true

	if _, ok := h.relays[client.SessionID]; !ok {
		sync := h.newSync(client.SessionID)
		h.relays[client.SessionID] = sync
		h.startRelay(client.SessionID, sync)
	}
	sync := h.relays[client.SessionID]
	h.mu.Unlock()

	log.Printf("Client registered: player=%s, session=%s", client.PlayerID, client.SessionID)

	go h.sendSnapshot(client, sync)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	client.closeSend()

	if len(clients) == 0 {
		delete(h.clients, client.SessionID)
		if sync, ok := h.relays[client.SessionID]; ok {
			delete(h.relays, client.SessionID)
			if err := sync.Cleanup(); err != nil {
				log.Printf("Failed to clean up relay for session %s: %v", client.SessionID, err)
			}
		}
	}

	log.Printf("Client unregistered: player=%s, session=%s", client.PlayerID, client.SessionID)
}

// startRelay wires the typed subscription callbacks to socket fan-out.
func (h *Hub) startRelay(sessionID string, sync Syncer) {
	sync.Subscribe(broadcast.Handlers{
		OnQuestionChange: func(payload broadcast.QuestionChangedPayload) {
			h.broadcastToSession(sessionID, broadcast.EventQuestionChanged, payload)
		},
		OnAnswerReveal: func(payload broadcast.AnswerRevealPayload) {
			h.broadcastToSession(sessionID, broadcast.EventAnswerReveal, payload)
		},
		OnAnswerSubmitted: func(payload broadcast.AnswerSubmittedPayload) {
			h.broadcastToSession(sessionID, broadcast.EventAnswerSubmitted, payload)
		},
		OnGameStateChange: func(payload models.GameState) {
			h.broadcastToSession(sessionID, broadcast.EventGameStateSync, payload)
		},
		OnGameComplete: func(payload broadcast.GameCompletePayload) {
			h.broadcastToSession(sessionID, broadcast.EventGameComplete, payload)
		},
	})
}

func (h *Hub) sendSnapshot(client *Client, sync Syncer) {
	state, err := sync.GetCurrentGameState(context.Background())
	if err != nil {
		log.Printf("Failed to load snapshot for session %s: %v", client.SessionID, err)
		client.SendError("Failed to load game state")
		return
	}
	client.SendMessage(string(broadcast.EventGameStateSync), state)
}

func (h *Hub) broadcastToSession(sessionID string, eventType broadcast.EventType, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[sessionID] {
		client.SendMessage(string(eventType), payload)
	}
}
