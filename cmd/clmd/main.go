package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/vk93102/clm-backend/internal/auth"
	"github.com/vk93102/clm-backend/internal/config"
	"github.com/vk93102/clm-backend/internal/notify"
	"github.com/vk93102/clm-backend/internal/server"
	"github.com/vk93102/clm-backend/internal/sla"
	"github.com/vk93102/clm-backend/internal/store/postgres"
	redisstore "github.com/vk93102/clm-backend/internal/store/redis"
	"github.com/vk93102/clm-backend/internal/workflow"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("CLM_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("CLM_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Create auth service.
	authSvc := auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Notification pipeline: dispatcher feeds the queue, worker drains it
	// through whatever senders are configured.
	dispatcher := notify.NewDispatcher(store.Notifications())

	senders := notify.NewRegistry()
	senders.Register(notify.LogSender{})
	if cfg.Slack.BotToken != "" {
		slackClient := slacklib.New(cfg.Slack.BotToken)
		senders.Register(notify.NewSlackSender(slackClient, cfg.Slack.Channel))
		log.Info().Str("channel", cfg.Slack.Channel).Msg("Slack delivery enabled")
	}

	notifyWorker := notify.NewWorker(store.Notifications(), senders).
		WithPubSub(pubsub).
		WithBatchSize(cfg.Notify.BatchSize)

	// Workflow engine.
	engine := workflow.NewEngine(
		store,
		store.Definitions(),
		store.Instances(),
		store.Approvals(),
		store.Contracts(),
		store.Audit(),
		store.UserRoles(),
		dispatcher,
		pubsub,
	)

	// SLA breach monitor.
	monitor := sla.NewMonitor(
		store.Approvals(),
		store.SLABreaches(),
		store.SLARules(),
		store.Instances(),
		store.Contracts(),
		store.Audit(),
		dispatcher,
	)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Background loops.
	go monitor.Run(ctx, cfg.SLA.ScanInterval)
	go notifyWorker.Run(ctx, cfg.Notify.DrainInterval)

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, pubsub, authSvc, engine, monitor)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
