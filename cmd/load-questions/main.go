package main

import (
	"flag"
	"time"

	"quiz-live/internal/config"
	"quiz-live/internal/db"
	"quiz-live/internal/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	filePath := flag.String("file", "questions.csv", "path to questions csv")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	conn, err := db.Open(db.Options{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
	}

	inserted, err := db.LoadQuestionBank(conn, *filePath)
	if err != nil {
		log.Fatal().Err(err).Int("inserted", inserted).Str("file", *filePath).Msg("failed to load questions")
	}
	log.Info().Int("inserted", inserted).Str("file", *filePath).Msg("question bank loaded")
}
