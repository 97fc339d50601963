package safety

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mindease/backend/internal/config"
	"github.com/mindease/backend/internal/model/chat"
)

// Notifier pushes an SOS alert to an out-of-band channel.
type Notifier interface {
	Notify(ctx context.Context, alert chat.Alert) error
}

// LogNotifier only writes the alert to the log.
type LogNotifier struct{}

// Notify writes the alert to the default logger.
func (LogNotifier) Notify(_ context.Context, alert chat.Alert) error {
	slog.Warn("sos alert raised",
		"user_id", alert.UserID,
		"status", alert.Status)
	return nil
}

// NewNotifier builds the notifier selected by cfg.Driver. The returned close
// func releases any connection it opened.
func NewNotifier(cfg config.NotifyConfig) (Notifier, func() error, error) {
	switch cfg.Driver {
	case config.NotifyLog, "":
		return LogNotifier{}, func() error { return nil }, nil
	case config.NotifyRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisNotifier(client, cfg.Channel), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("safety: unknown notify driver %q", cfg.Driver)
	}
}
