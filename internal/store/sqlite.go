package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mindease/backend/internal/model/chat"
)

// SQLite implements Repository on a local SQLite file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at dbPath in WAL mode and
// ensures the schema exists.
func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// modernc applies _pragma entries on every new connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS chat_turns (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		user_message TEXT NOT NULL,
		bot_response TEXT NOT NULL,
		mood TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_turns_user ON chat_turns(user_id, seq);

	CREATE TABLE IF NOT EXISTS sos_alerts (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		message TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// FetchRecent reads the newest limit rows and returns them oldest first.
func (s *SQLite) FetchRecent(ctx context.Context, userID string, limit int) ([]chat.Turn, error) {
	if limit <= 0 {
		return []chat.Turn{}, nil
	}

	query := `
		SELECT id, user_id, user_message, bot_response, mood, created_at
		FROM chat_turns WHERE user_id = ?
		ORDER BY seq DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat turns: %w", err)
	}
	defer rows.Close()

	turns := make([]chat.Turn, 0, limit)
	for rows.Next() {
		var (
			t         chat.Turn
			mood      string
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.UserMessage, &t.BotResponse, &mood, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		t.Mood = chat.Mood(mood)
		t.Timestamp = time.Unix(0, createdAt).UTC()
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat turns: %w", err)
	}

	reverse(turns)
	return turns, nil
}

// AppendTurn inserts a turn, retrying on SQLITE_BUSY.
func (s *SQLite) AppendTurn(ctx context.Context, turn chat.Turn) error {
	if err := validateTurn(turn); err != nil {
		return err
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO chat_turns (id, user_id, user_message, bot_response, mood, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	id := uuid.NewString()
	return retryBusy(ctx, "append chat turn", func() error {
		_, err := s.db.ExecContext(ctx, query,
			id, turn.UserID, turn.UserMessage, turn.BotResponse,
			string(turn.Mood), turn.Timestamp.UnixNano(),
		)
		return err
	})
}

// AppendAlert inserts an alert, retrying on SQLITE_BUSY.
func (s *SQLite) AppendAlert(ctx context.Context, alert chat.Alert) error {
	if err := validateAlert(alert); err != nil {
		return err
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sos_alerts (id, user_id, message, status, created_at)
		VALUES (?, ?, ?, ?, ?)`

	id := uuid.NewString()
	return retryBusy(ctx, "append sos alert", func() error {
		_, err := s.db.ExecContext(ctx, query,
			id, alert.UserID, alert.Message, chat.AlertTriggered, alert.CreatedAt.UnixNano(),
		)
		return err
	})
}

// CountAlerts returns how many alerts exist for userID.
func (s *SQLite) CountAlerts(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sos_alerts WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sos alerts: %w", err)
	}
	return n, nil
}

// Ping verifies database connectivity.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
