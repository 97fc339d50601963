package config

import (
	"fmt"
	"strings"
)

// Validate checks driver names and required fields, and derives Server.Addr.
func (c *Config) Validate() error {
	addr, err := normalizeAddr(c.Server.Port)
	if err != nil {
		return err
	}
	c.Server.Addr = addr

	switch c.AI.Provider {
	case ProviderOpenAI, ProviderArk:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be > 0 (got %s)", c.AI.Timeout)
	}

	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	switch c.Sentiment.Scorer {
	case ScorerLexicon, ScorerVader:
	default:
		return fmt.Errorf("unknown SENTIMENT_SCORER %q", c.Sentiment.Scorer)
	}

	switch c.Notify.Driver {
	case NotifyLog:
	case NotifyRedis:
		if strings.TrimSpace(c.Notify.RedisAddr) == "" {
			return fmt.Errorf("REDIS_ADDR is required when NOTIFY_DRIVER=redis")
		}
		if strings.TrimSpace(c.Notify.Channel) == "" {
			return fmt.Errorf("NOTIFY_CHANNEL cannot be empty")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_DRIVER %q", c.Notify.Driver)
	}

	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Driver {
	case DriverSQLite:
		if strings.TrimSpace(s.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH cannot be empty")
		}
	case DriverPostgres:
		if strings.TrimSpace(s.PostgresDSN) == "" {
			return fmt.Errorf("DATABASE_DSN is required when STORE_DRIVER=postgres")
		}
		if s.MaxConns <= 0 {
			return fmt.Errorf("DATABASE_MAX_CONNS must be > 0 (got %d)", s.MaxConns)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", s.Driver)
	}

	if s.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be > 0 (got %s)", s.Timeout)
	}
	return nil
}
