package config

import (
	"fmt"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	AI        AIConfig        `yaml:"ai"`
	Store     StoreConfig     `yaml:"store"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Notify    NotifyConfig    `yaml:"notify"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port              string        `yaml:"port"                env:"PORT"                       env-default:"8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"SERVER_READ_HEADER_TIMEOUT" env-default:"5s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"SERVER_IDLE_TIMEOUT"        env-default:"120s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"SERVER_SHUTDOWN_TIMEOUT"    env-default:"10s"`

	// Addr is derived from Port during validation.
	Addr string `yaml:"-" env:"-"`
}

// Supported completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// AIConfig 描述大模型相关配置。
//
// The openai provider targets any OpenAI-compatible chat-completions endpoint
// and falls back to Groq when BaseURL is empty; ark falls back to its SDK default.
type AIConfig struct {
	Provider  string        `yaml:"provider"   env:"AI_PROVIDER"    env-default:"openai"`
	APIKey    string        `yaml:"api_key"    env:"AI_API_KEY"`
	AccessKey string        `yaml:"access_key" env:"ARK_ACCESS_KEY"`
	SecretKey string        `yaml:"secret_key" env:"ARK_SECRET_KEY"`
	Model     string        `yaml:"model"      env:"AI_MODEL"       env-default:"gemma2-9b-it"`
	BaseURL   string        `yaml:"base_url"   env:"AI_BASE_URL"`
	Region    string        `yaml:"region"     env:"ARK_REGION"     env-default:"cn-beijing"`
	MaxTokens int           `yaml:"max_tokens" env:"AI_MAX_TOKENS"  env-default:"0"`
	Timeout   time.Duration `yaml:"timeout"    env:"AI_TIMEOUT"     env-default:"30s"`
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	switch c.Provider {
	case ProviderArk:
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	case ProviderOpenAI:
		return c.APIKey != ""
	default:
		return false
	}
}

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StoreConfig selects and tunes the chat history store.
type StoreConfig struct {
	Driver      string        `yaml:"driver"       env:"STORE_DRIVER"       env-default:"sqlite"`
	SQLitePath  string        `yaml:"sqlite_path"  env:"SQLITE_PATH"        env-default:"./data/mindease.db"`
	PostgresDSN string        `yaml:"postgres_dsn" env:"DATABASE_DSN"`
	MaxConns    int32         `yaml:"max_conns"    env:"DATABASE_MAX_CONNS" env-default:"10"`
	Timeout     time.Duration `yaml:"timeout"      env:"STORE_TIMEOUT"      env-default:"5s"`
}

// Supported polarity scorers.
const (
	ScorerLexicon = "lexicon"
	ScorerVader   = "vader"
)

// SentimentConfig selects the polarity scorer.
type SentimentConfig struct {
	Scorer string `yaml:"scorer" env:"SENTIMENT_SCORER" env-default:"lexicon"`
}

// Supported alert notification channels.
const (
	NotifyLog   = "log"
	NotifyRedis = "redis"
)

// NotifyConfig 描述 SOS 告警的外部通知通道。
type NotifyConfig struct {
	Driver        string `yaml:"driver"         env:"NOTIFY_DRIVER"  env-default:"log"`
	RedisAddr     string `yaml:"redis_addr"     env:"REDIS_ADDR"     env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db"       env:"REDIS_DB"       env-default:"0"`
	Channel       string `yaml:"channel"        env:"NOTIFY_CHANNEL" env-default:"mindease:sos"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

// normalizeAddr 解析服务器监听地址。
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}
