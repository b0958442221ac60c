// Package notify moves domain events out of the process through RabbitMQ.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/apdq/deliver-backend/internal/core/events"
)

const DefaultQueue = "deliver.notifications"

// Notification is the wire form of a domain event.
type Notification struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

func FromEvent(e events.Event) Notification {
	return Notification{
		ID:         e.EventID(),
		Type:       string(e.EventType()),
		OccurredAt: e.OccurredAt(),
		Data:       e.Payload(),
	}
}

func Decode(body []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return n, fmt.Errorf("decode notification: %w", err)
	}
	if n.Type == "" {
		return n, fmt.Errorf("decode notification: missing type")
	}
	return n, nil
}
