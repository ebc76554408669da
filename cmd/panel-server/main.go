package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/krittapak/catalog-panel/internal/audit"
	"github.com/krittapak/catalog-panel/internal/backend"
	"github.com/krittapak/catalog-panel/internal/config"
	"github.com/krittapak/catalog-panel/internal/http"
	"github.com/krittapak/catalog-panel/internal/log"
	"github.com/krittapak/catalog-panel/internal/notify"
	"github.com/krittapak/catalog-panel/internal/panel"
	"github.com/krittapak/catalog-panel/internal/telemetry"
	"github.com/krittapak/catalog-panel/internal/workflow"
	"github.com/krittapak/catalog-panel/pkg/cmdutil"
	"github.com/krittapak/catalog-panel/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running panel server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log        config.Log
		HTTP       config.HTTP
		Backend    config.Backend
		AuditKafka config.AuditKafka
		Otel       config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	backendClient, err := backend.NewClient(cfg.Backend)
	if err != nil {
		return fmt.Errorf("error creating backend client: %w", err)
	}

	var auditPublisher audit.Publisher = audit.NopPublisher{}
	if cfg.AuditKafka.Enabled() {
		kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.AuditKafka)
		if err != nil {
			return fmt.Errorf("error creating audit publisher: %w", err)
		}
		defer kafkaPublisher.Close()
		auditPublisher = kafkaPublisher
	}

	state := panel.NewState()
	notifications := notify.NewCenter(logger, 50)

	wf := workflow.NewCatalog(
		logger,
		validator.NewDefaultValidator(),
		backendClient,
		state,
		notifications,
		auditPublisher,
	)

	// warm the snapshots so the first page load has data
	wf.Refresh(ctx)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := http.New(cfg.HTTP, logger, wf, state, notifications)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Wait()

	return nil
}
