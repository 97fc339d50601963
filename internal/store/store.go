// Package store provides chat history and alert persistence.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mindease/backend/internal/config"
	"github.com/mindease/backend/internal/model/chat"
)

// ErrInvalidRecord is returned when a turn or alert is missing required fields.
var ErrInvalidRecord = errors.New("store: invalid record")

// HistoryReader reads recent turns for a user.
type HistoryReader interface {
	// FetchRecent returns at most limit turns, oldest first. A user without
	// history yields an empty slice and no error.
	FetchRecent(ctx context.Context, userID string, limit int) ([]chat.Turn, error)
}

// TurnWriter appends completed turns.
type TurnWriter interface {
	AppendTurn(ctx context.Context, turn chat.Turn) error
}

// AlertWriter appends SOS alerts.
type AlertWriter interface {
	AppendAlert(ctx context.Context, alert chat.Alert) error
}

// Repository defines the persistence surface used by the service.
type Repository interface {
	HistoryReader
	TurnWriter
	AlertWriter

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connection or pool.
	Close() error
}

// Open builds the repository selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Repository, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		p, err := NewPostgres(ctx, cfg.PostgresDSN, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func validateTurn(turn chat.Turn) error {
	if strings.TrimSpace(turn.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRecord)
	}
	if turn.UserMessage == "" || turn.BotResponse == "" {
		return fmt.Errorf("%w: turn needs both user_message and bot_response", ErrInvalidRecord)
	}
	return nil
}

func validateAlert(alert chat.Alert) error {
	if strings.TrimSpace(alert.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRecord)
	}
	return nil
}

// reverse flips newest-first rows into chronological order in place.
func reverse(turns []chat.Turn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
