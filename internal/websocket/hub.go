package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-companion-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannel = "chat_relay"

// Hub tracks connected chat sockets per user (multi-device) and relays
// frames across instances through Redis pub/sub, so a stream reaches the
// user no matter which instance answered the HTTP request.
type Hub struct {
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("hub", "client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers one frame to every socket the user has open, locally and on
// other instances via Redis.
func (h *Hub) Send(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients, localFound := h.clients[userID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// Unregister closes Send, the pumps shut the socket down.
				h.logger.Warn("hub", "client send buffer full, dropping connection", map[string]interface{}{"user_id": userID})
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil {
		payload, err := json.Marshal(relayEnvelope{
			TargetUserId: userID.String(),
			Frame:        data,
		})
		if err != nil {
			return
		}
		h.rdb.Publish(context.Background(), relayChannel, payload)
	}
}

type relayEnvelope struct {
	TargetUserId string          `json:"target_user_id"`
	Frame        json.RawMessage `json:"frame"`
}

// subscribeToRedis listens for frames published by other instances and
// forwards the ones addressed to locally connected users.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope relayEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			continue
		}

		userID, err := uuid.Parse(envelope.TargetUserId)
		if err != nil {
			continue
		}

		h.mu.RLock()
		clients, found := h.clients[userID]
		h.mu.RUnlock()
		if !found {
			continue
		}

		for _, client := range clients {
			select {
			case client.Send <- envelope.Frame:
			default:
			}
		}
	}
}
