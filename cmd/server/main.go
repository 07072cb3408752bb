package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/kalesha58/expense-core/internal/config"
	"github.com/kalesha58/expense-core/internal/draft"
	httpiface "github.com/kalesha58/expense-core/internal/interfaces/http"
	"github.com/kalesha58/expense-core/internal/itemization"
	"github.com/kalesha58/expense-core/internal/payload"
	"github.com/kalesha58/expense-core/internal/stats"
	"github.com/kalesha58/expense-core/internal/submission"
	"github.com/kalesha58/expense-core/pkg/database"
	"github.com/kalesha58/expense-core/pkg/utils"
)

func main() {
	// Load .env before viper reads the environment
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting expense reporting service",
		zap.Int("port", cfg.Server.Port),
		zap.String("api_base_url", cfg.API.BaseURL))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	store, err := draft.NewSQLiteStore(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize draft store", zap.Error(err))
	}

	engine := itemization.NewEngine(store, func(lineItemID string, count int) {
		logger.Debug("Itemized entry count changed",
			zap.String("line_item_id", lineItemID),
			zap.Int("count", count))
	}, logger)

	builder := payload.NewBuilder()

	client := submission.NewHTTPClient(submission.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		CreatePath: cfg.API.CreatePath,
		Timeout:    cfg.API.Timeout,
	}, logger)

	orchestrator := submission.NewOrchestrator(store, builder, client, submission.Config{
		PostSubmitDelay:               cfg.Submission.PostSubmitDelay,
		PreserveDraftOnTransportError: cfg.Submission.PreserveDraftOnTransportError,
	}, logger)

	exporter := stats.NewExcelExporter(cfg.Stats.OutputDir, logger)

	handlers := httpiface.NewHandlers(store, engine, orchestrator, exporter, logger)
	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("Server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
