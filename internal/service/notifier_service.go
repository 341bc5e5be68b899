package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/websocket"
	"ai-companion-be/pkg/events"
	pkgNats "ai-companion-be/pkg/nats"

	"github.com/google/uuid"
)

type INotifierService interface {
	Start() error
}

// notifierService bridges the durable event stream to connected websockets.
// Indexing and retrieval events carry a user_id, so each one can be pushed
// to the sockets of the user it concerns.
type notifierService struct {
	subscriber *pkgNats.Subscriber
	hub        *websocket.Hub
	log        logger.ILogger
}

func NewNotifierService(subscriber *pkgNats.Subscriber, hub *websocket.Hub, log logger.ILogger) INotifierService {
	return &notifierService{
		subscriber: subscriber,
		hub:        hub,
		log:        log,
	}
}

func (s *notifierService) Start() error {
	if err := s.subscriber.Subscribe("events.SOURCE_INDEXED", "ws-source-indexed", s.push("source_indexed")); err != nil {
		return err
	}
	if err := s.subscriber.Subscribe("events.RETRIEVAL_DEGRADED", "ws-retrieval-degraded", s.push("retrieval_degraded")); err != nil {
		return err
	}
	return nil
}

type socketFrame struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

func (s *notifierService) push(frameType string) pkgNats.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		payload := event.Payload()

		rawUserId, ok := payload["user_id"].(string)
		if !ok {
			return fmt.Errorf("event %s has no user_id", event.EventType())
		}
		userId, err := uuid.Parse(rawUserId)
		if err != nil {
			return fmt.Errorf("event %s has malformed user_id: %w", event.EventType(), err)
		}

		frame, err := json.Marshal(socketFrame{Type: frameType, Data: payload})
		if err != nil {
			return err
		}

		s.hub.Send(userId, frame)
		s.log.Info("notifier", "event pushed to websocket", map[string]interface{}{
			"type":    frameType,
			"user_id": userId,
		})
		return nil
	}
}
