package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/notify"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/repository"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/internal/report/service"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/config"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/database"
	"github.com/leangjia/topgp-inventory-alert-webhook-email/pkg/logger"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("expiry-reporter")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger with a per-run ID
	log := logger.New("expiry-reporter", cfg.Job.Environment).WithRunID(uuid.New().String())
	log.Info().Msg("starting expiry reporter")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// A second invocation before the first completes is out of scope; the
	// signal context only lets an operator abort the fetch cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := repository.NewInventoryRepository(db, cfg.Job.PageSize, log.WithComponent("repository"))
	chatSink := notify.NewChatSink(&cfg.Chat, log.WithComponent("chat"))
	emailSink := notify.NewEmailSink(cfg.Mail, log.WithComponent("email"))

	runner := service.NewRunner(repo, chatSink, emailSink, cfg.Job, log.WithComponent("runner"))

	outcome, err := runner.Run(ctx)
	if err != nil {
		log.Error().Err(err).Str("outcome", string(outcome)).Msg("run failed")
		os.Exit(1)
	}

	log.Info().Str("outcome", string(outcome)).Msg("run finished")
}
