package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindease/backend/internal/model/chat"
)

// Memory keeps turns and alerts in process memory. Data is lost on restart.
type Memory struct {
	mu     sync.RWMutex
	turns  map[string][]chat.Turn
	alerts []chat.Alert
}

// NewMemory bootstraps an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		turns: make(map[string][]chat.Turn),
	}
}

// FetchRecent returns a copy of the newest limit turns in chronological order.
func (m *Memory) FetchRecent(_ context.Context, userID string, limit int) ([]chat.Turn, error) {
	if limit <= 0 {
		return []chat.Turn{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.turns[userID]
	start := 0
	if len(turns) > limit {
		start = len(turns) - limit
	}

	copied := make([]chat.Turn, len(turns)-start)
	copy(copied, turns[start:])
	return copied, nil
}

// AppendTurn assigns an ID and timestamp when missing and stores the turn.
func (m *Memory) AppendTurn(_ context.Context, turn chat.Turn) error {
	if err := validateTurn(turn); err != nil {
		return err
	}

	turn.ID = uuid.NewString()
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	m.turns[turn.UserID] = append(m.turns[turn.UserID], turn)
	m.mu.Unlock()
	return nil
}

// AppendAlert stores an alert.
func (m *Memory) AppendAlert(_ context.Context, alert chat.Alert) error {
	if err := validateAlert(alert); err != nil {
		return err
	}

	alert.ID = uuid.NewString()
	alert.Status = chat.AlertTriggered
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	m.alerts = append(m.alerts, alert)
	m.mu.Unlock()
	return nil
}

// Alerts returns a snapshot of stored alerts.
func (m *Memory) Alerts() []chat.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	copied := make([]chat.Alert, len(m.alerts))
	copy(copied, m.alerts)
	return copied
}

// TurnCount returns the number of stored turns across all users.
func (m *Memory) TurnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, turns := range m.turns {
		n += len(turns)
	}
	return n
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
