package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/apdq/deliver-backend/internal/core/events"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish test events through the event bus and the notification dispatcher`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus; it is forwarded to RabbitMQ when configured`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(events.EventType(args[0]))
	},
}

var eventData string

func newTestEvent(eventType events.EventType, message string) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": message,
			"source":  "cli-command",
		},
	}
}

func publishTestEvent(eventType events.EventType) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	lg := setupLogger(config)

	bus, dispatcher := initNotifications(config, lg)
	// Shutdown waits for the workers, so the event is flushed before exit.
	defer dispatcher.Shutdown()

	if !eventType.Known() {
		lg.Warn("event type is not forwarded to the broker", "event_type", eventType, "known", events.AllEventTypes)
	}

	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	testEvent := newTestEvent(eventType, eventData)
	lg.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)

	if err := bus.PublishSync(context.Background(), testEvent); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
