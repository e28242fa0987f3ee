package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	YouTubeAPIKey string `env:"YOUTUBE_API_KEY"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	DefaultCooldownMinutes int `env:"DEFAULT_COOLDOWN_MINUTES" default:"5"`
	CoachCacheCapacity     int `env:"COACH_CACHE_CAPACITY" default:"1000"`
	IngestBuffer           int `env:"INGEST_BUFFER" default:"256"`

	MaxWebSocketConnections int64   `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP     int     `env:"MAX_CONNECTIONS_PER_IP" default:"20"`
	ConnectionsPerSecond    float64 `env:"CONNECTIONS_PER_SECOND" default:"10"`
	ConnectionBurst         int     `env:"CONNECTION_BURST" default:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":    cfg.DatabaseURL,
		"REDIS_URL":       cfg.RedisURL,
		"YOUTUBE_API_KEY": cfg.YouTubeAPIKey,
		"OPENAI_API_KEY":  cfg.OpenAIAPIKey,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.DefaultCooldownMinutes < 0 {
		return fmt.Errorf("DEFAULT_COOLDOWN_MINUTES must not be negative")
	}
	if cfg.CoachCacheCapacity < 1 {
		return fmt.Errorf("COACH_CACHE_CAPACITY must be at least 1")
	}
	if cfg.IngestBuffer < 1 {
		return fmt.Errorf("INGEST_BUFFER must be at least 1")
	}

	return nil
}
