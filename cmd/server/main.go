package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-live/internal/auth"
	"quiz-live/internal/config"
	"quiz-live/internal/db"
	"quiz-live/internal/game"
	"quiz-live/internal/logging"
	"quiz-live/internal/questions"
	"quiz-live/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/thejerf/suture/v4"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	gin.SetMode(gin.ReleaseMode)

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var conn *gorm.DB
	if cfg.StoreBackend == config.StorePostgres || cfg.QuestionSource == config.SourceBank {
		var err error
		conn, err = db.Open(db.Options{
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(conn); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
		}
		defer func() {
			if sqlDB, err := conn.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}()
	}

	durable, answers, closeStore, err := openDurableStore(cfg, conn)
	if err != nil {
		return err
	}
	defer closeStore()

	source, err := openQuestionSource(cfg, conn)
	if err != nil {
		return err
	}

	if cfg.JWTSecret == "change-me" {
		log.Warn().Msg("JWT_SECRET is the default value; set it in production")
	}
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		return err
	}

	synchronizer := game.NewSynchronizer(durable, game.SyncOptions{
		QueueSize: cfg.SyncQueueSize,
		Timeout:   cfg.StoreTimeout(),
	})
	hub := server.NewHub()
	coord := game.NewCoordinator(game.NewStore(), source, synchronizer, hub, game.Options{
		RevealDelay:          cfg.RevealDelay(),
		QuestionDeadline:     cfg.QuestionDeadline(),
		DefaultQuestionCount: cfg.DefaultQuestionCount,
		MaxQuestionCount:     cfg.MaxQuestionCount,
		Retention:            cfg.SessionRetention(),
	})
	srv := server.New(coord, hub, issuer, cfg)
	if answers != nil {
		srv.WithAnswers(answers)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer.RegisterOnShutdown(hub.Close)

	supervisor := suture.New("quiz-live", suture.Spec{
		EventHook: func(e suture.Event) {
			log.Warn().Fields(e.Map()).Msg(e.String())
		},
		Timeout: 15 * time.Second,
	})
	supervisor.Add(server.NewHTTPService(httpServer, 10*time.Second))
	supervisor.Add(synchronizer)
	supervisor.Add(game.NewSweeper(coord, cfg.SweepInterval()))

	log.Info().
		Str("addr", httpServer.Addr).
		Str("store", cfg.StoreBackend).
		Str("questions", cfg.QuestionSource).
		Dur("question_deadline", cfg.QuestionDeadline()).
		Msg("quiz-live server listening")
	return supervisor.Serve(ctx)
}

func openDurableStore(cfg config.Config, conn *gorm.DB) (game.DurableStore, server.AnswerLister, func(), error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		store := db.NewGormStore(conn)
		return store, store, func() {}, nil
	case config.StoreBadger:
		kv, err := db.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open badger store: %w", err)
		}
		store := db.NewBadgerStore(kv)
		return store, store, func() {
			if err := kv.Close(); err != nil {
				log.Warn().Err(err).Msg("close badger store")
			}
		}, nil
	default:
		log.Info().Msg("durable store disabled; sessions live in memory only")
		return nil, nil, func() {}, nil
	}
}

func openQuestionSource(cfg config.Config, conn *gorm.DB) (game.QuestionSource, error) {
	switch cfg.QuestionSource {
	case config.SourceBank:
		return questions.NewBank(conn), nil
	case config.SourceOpenAI:
		generator, err := questions.NewGenerator(questions.GeneratorConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			return nil, fmt.Errorf("question generator: %w", err)
		}
		return generator, nil
	default:
		return questions.NewStatic(nil), nil
	}
}
