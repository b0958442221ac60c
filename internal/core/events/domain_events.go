package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeGarageCreated     EventType = "garage.created"
	EventTypeGarageActivated   EventType = "garage.activated"
	EventTypeGarageDeactivated EventType = "garage.deactivated"
	EventTypeMessageSent       EventType = "message.sent"
)

// AllEventTypes is every domain event the notification dispatcher forwards.
var AllEventTypes = []EventType{
	EventTypeGarageCreated,
	EventTypeGarageActivated,
	EventTypeGarageDeactivated,
	EventTypeMessageSent,
}

func newBase(eventType EventType, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type GarageCreatedEvent struct {
	BaseEvent
	GarageID    int64  `json:"garage_id"`
	Name        string `json:"name"`
	CreatedByID int64  `json:"created_by_id"`
}

func NewGarageCreatedEvent(garageID int64, name string, createdByID int64) *GarageCreatedEvent {
	return &GarageCreatedEvent{
		BaseEvent: newBase(EventTypeGarageCreated, map[string]interface{}{
			"garage_id":     garageID,
			"name":          name,
			"created_by_id": createdByID,
		}),
		GarageID:    garageID,
		Name:        name,
		CreatedByID: createdByID,
	}
}

// GarageStatusEvent reports a billing driven activation change.
type GarageStatusEvent struct {
	BaseEvent
	GarageID      int64  `json:"garage_id"`
	PaymentStatus string `json:"payment_status"`
}

func NewGarageStatusEvent(garageID int64, active bool, paymentStatus string) *GarageStatusEvent {
	eventType := EventTypeGarageDeactivated
	if active {
		eventType = EventTypeGarageActivated
	}
	return &GarageStatusEvent{
		BaseEvent: newBase(eventType, map[string]interface{}{
			"garage_id":      garageID,
			"payment_status": paymentStatus,
		}),
		GarageID:      garageID,
		PaymentStatus: paymentStatus,
	}
}

type MessageSentEvent struct {
	BaseEvent
	MessageID    int64   `json:"message_id"`
	Channel      string  `json:"channel"`
	SenderID     int64   `json:"sender_id"`
	RecipientIDs []int64 `json:"recipient_ids"`
}

const (
	ChannelAdmin  = "admin"
	ChannelGarage = "garage"
)

func NewMessageSentEvent(channel string, messageID, senderID int64, recipientIDs []int64) *MessageSentEvent {
	return &MessageSentEvent{
		BaseEvent: newBase(EventTypeMessageSent, map[string]interface{}{
			"message_id":    messageID,
			"channel":       channel,
			"sender_id":     senderID,
			"recipient_ids": recipientIDs,
		}),
		MessageID:    messageID,
		Channel:      channel,
		SenderID:     senderID,
		RecipientIDs: recipientIDs,
	}
}
