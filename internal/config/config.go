package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreNone     = "none"
	StorePostgres = "postgres"
	StoreBadger   = "badger"

	SourceStatic = "static"
	SourceBank   = "bank"
	SourceOpenAI = "openai"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	RevealDelayMS           int `env:"REVEAL_DELAY_MS" envDefault:"3000"`
	QuestionSeconds         int `env:"QUESTION_SECONDS" envDefault:"15"`
	SessionRetentionSeconds int `env:"SESSION_RETENTION_SECONDS" envDefault:"600"`
	SweepIntervalSeconds    int `env:"SWEEP_INTERVAL_SECONDS" envDefault:"60"`
	DefaultQuestionCount    int `env:"DEFAULT_QUESTION_COUNT" envDefault:"10"`
	MaxQuestionCount        int `env:"MAX_QUESTION_COUNT" envDefault:"50"`

	StoreBackend             string `env:"STORE_BACKEND" envDefault:"none"`
	DatabaseURL              string `env:"DATABASE_URL"`
	BadgerPath               string `env:"BADGER_PATH" envDefault:"data/sessions"`
	AutoMigrate              bool   `env:"AUTO_MIGRATE" envDefault:"false"`
	DBMaxOpenConns           int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns           int    `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeSeconds int    `env:"DB_CONN_MAX_LIFETIME_SECONDS" envDefault:"300"`
	SyncQueueSize            int    `env:"SYNC_QUEUE_SIZE" envDefault:"1024"`
	StoreTimeoutMS           int    `env:"STORE_TIMEOUT_MS" envDefault:"5000"`

	QuestionSource string `env:"QUESTION_SOURCE" envDefault:"static"`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `env:"OPENAI_BASE_URL"`
	OpenAIModel    string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	JWTSecret     string `env:"JWT_SECRET" envDefault:"change-me"`
	TokenTTLHours int    `env:"TOKEN_TTL_HOURS" envDefault:"24"`

	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"20"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// Default returns the built-in defaults without consulting the process environment.
func Default() Config {
	var cfg Config
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	switch cfg.StoreBackend {
	case StoreNone, StorePostgres, StoreBadger:
	default:
		return Config{}, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	switch cfg.QuestionSource {
	case SourceStatic, SourceBank, SourceOpenAI:
	default:
		return Config{}, fmt.Errorf("unknown QUESTION_SOURCE %q", cfg.QuestionSource)
	}
	if cfg.DefaultQuestionCount <= 0 {
		cfg.DefaultQuestionCount = 10
	}
	if cfg.MaxQuestionCount < cfg.DefaultQuestionCount {
		cfg.MaxQuestionCount = cfg.DefaultQuestionCount
	}
	return cfg, nil
}

func (c Config) RevealDelay() time.Duration {
	return time.Duration(c.RevealDelayMS) * time.Millisecond
}

func (c Config) QuestionDeadline() time.Duration {
	if c.QuestionSeconds <= 0 {
		return 0
	}
	return time.Duration(c.QuestionSeconds) * time.Second
}

func (c Config) SessionRetention() time.Duration {
	return time.Duration(c.SessionRetentionSeconds) * time.Second
}

func (c Config) SweepInterval() time.Duration {
	if c.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}
