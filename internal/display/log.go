package display

import (
	"context"

	"github.com/oshokin/build-tv/internal/domain/notification"
	"github.com/oshokin/build-tv/internal/logger"
)

// Log writes shown and hidden notifications to the log.
type Log struct{}

// NewLog creates a log display.
func NewLog() *Log {
	return new(Log)
}

// Show logs the notification.
func (*Log) Show(ctx context.Context, n *notification.Notification) error {
	logger.InfoKV(ctx, "Notification shown",
		"header", n.Header,
		"text", n.Text,
		"color", n.Color.Hex(),
		"priority", n.Priority,
		"lifespan", n.Lifespan,
	)

	return nil
}

// Hide logs that the display went blank.
func (*Log) Hide(ctx context.Context) error {
	logger.Info(ctx, "Notification hidden")

	return nil
}
