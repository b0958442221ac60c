package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apdq/deliver-backend/internal/notify"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start long running consumers for out of process work.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Consume domain notifications from RabbitMQ",
	Long:  `Consume garage and message notifications from the notifications queue and log them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startNotificationWorker()
	},
}

var workerQueue string

func startNotificationWorker() error {
	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	lg := setupLogger(config)

	if config.RabbitMQ.URL == "" {
		return errors.New("rabbitmq.url is not configured")
	}
	queue := getStringFlag(workerQueue, config.RabbitMQ.Queue)

	consumer := notify.NewConsumer(config.RabbitMQ.URL, queue, func(ctx context.Context, n notify.Notification) error {
		lg.InfoContext(ctx, "notification received",
			"id", n.ID,
			"type", n.Type,
			"occurred_at", n.OccurredAt,
			"data", n.Data)
		return nil
	}, lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("notification worker is running. Press Ctrl+C to stop.", "queue", queue)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	lg.Info("notification worker stopped")
	return nil
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().StringVar(&workerQueue, "queue", "", "Queue to consume (overrides config)")

	workerCmd.AddCommand(notificationWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
