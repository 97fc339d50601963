package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindease/backend/internal/model/chat"
)

// Querier is the subset of *pgxpool.Pool the Postgres store needs.
// pgxmock.PgxPoolIface satisfies it as well.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS chat_turns (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	user_message TEXT NOT NULL,
	bot_response TEXT NOT NULL,
	mood TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_turns_user ON chat_turns (user_id, seq);

CREATE TABLE IF NOT EXISTS sos_alerts (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	message TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);`

// Postgres implements Repository on PostgreSQL.
type Postgres struct {
	q Querier
}

// NewPostgres creates a pool from dsn, pings it and ensures the schema.
func NewPostgres(ctx context.Context, dsn string, maxConns int32) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := NewPostgresWithQuerier(pool)
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresWithQuerier wraps an existing pool.
func NewPostgresWithQuerier(q Querier) *Postgres {
	return &Postgres{q: q}
}

// EnsureSchema creates tables that do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.q.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// FetchRecent reads the newest limit rows and returns them oldest first.
func (p *Postgres) FetchRecent(ctx context.Context, userID string, limit int) ([]chat.Turn, error) {
	if limit <= 0 {
		return []chat.Turn{}, nil
	}

	query, args, err := psql.
		Select("id", "user_id", "user_message", "bot_response", "mood", "created_at").
		From("chat_turns").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("seq DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fetch query: %w", err)
	}

	rows, err := p.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat turns: %w", err)
	}
	defer rows.Close()

	turns := make([]chat.Turn, 0, limit)
	for rows.Next() {
		var (
			t    chat.Turn
			mood string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.UserMessage, &t.BotResponse, &mood, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		t.Mood = chat.Mood(mood)
		t.Timestamp = t.Timestamp.UTC()
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat turns: %w", err)
	}

	reverse(turns)
	return turns, nil
}

// AppendTurn inserts one turn.
func (p *Postgres) AppendTurn(ctx context.Context, turn chat.Turn) error {
	if err := validateTurn(turn); err != nil {
		return err
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	query, args, err := psql.
		Insert("chat_turns").
		Columns("id", "user_id", "user_message", "bot_response", "mood", "created_at").
		Values(uuid.NewString(), turn.UserID, turn.UserMessage, turn.BotResponse, string(turn.Mood), turn.Timestamp).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert turn: %w", err)
	}

	if _, err := p.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("append chat turn: %w", err)
	}
	return nil
}

// AppendAlert inserts one alert with status ALERT_TRIGGERED.
func (p *Postgres) AppendAlert(ctx context.Context, alert chat.Alert) error {
	if err := validateAlert(alert); err != nil {
		return err
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	query, args, err := psql.
		Insert("sos_alerts").
		Columns("id", "user_id", "message", "status", "created_at").
		Values(uuid.NewString(), alert.UserID, alert.Message, chat.AlertTriggered, alert.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert alert: %w", err)
	}

	if _, err := p.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("append sos alert: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.q.Ping(ctx)
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.q.Close()
	return nil
}
