package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	h "github.com/veranemoloko/ytfetch/internal/api/http"
	"github.com/veranemoloko/ytfetch/internal/cli"
	cfgpkg "github.com/veranemoloko/ytfetch/internal/config"
	"github.com/veranemoloko/ytfetch/internal/encoder"
	errpkg "github.com/veranemoloko/ytfetch/internal/errors"
	"github.com/veranemoloko/ytfetch/internal/fetcher"
	"github.com/veranemoloko/ytfetch/internal/metrics"
	"github.com/veranemoloko/ytfetch/internal/report"
	"github.com/veranemoloko/ytfetch/internal/resolver"
	svc "github.com/veranemoloko/ytfetch/internal/service"
	"github.com/veranemoloko/ytfetch/internal/storage"
	"github.com/veranemoloko/ytfetch/internal/worker"
)

func main() {
	cfg, err := cfgpkg.Load(os.Getenv("YF_ENV_FILE"))
	if err != nil {
		if errors.Is(err, errpkg.ErrConfigNotFound) {
			slog.Error("configuration file not found", "error", err)
		} else {
			slog.Error("failed to load configuration", "error", err)
		}
		os.Exit(1)
	}

	logger := cfgpkg.SetupLogger(cfg)
	logger.Debug("configuration loaded successfully", "env", cfg.Environment)

	ffmpeg := encoder.NewFFmpeg(cfg.FFmpegPath, logger)
	if err := ffmpeg.CheckAvailable(); err != nil {
		fmt.Fprintf(os.Stderr, "ytfetch: %v\n", err)
		os.Exit(1)
	}

	client := resolver.NewClient(cfg.DownloadTimeout)
	files := storage.NewFileStorage()
	ledger := storage.NewLedgerStore(logger)
	res := resolver.NewYouTubeResolver(client, cfg.LookupRate, logger)
	fetch := fetcher.NewYouTubeFetcher(client, ffmpeg, files, cfg.DownloadTimeout, logger)
	ledgerFiles := svc.LedgerFiles{
		Pending:    cfg.PendingPath(),
		Downloaded: cfg.DownloadedPath(),
	}

	reporter := report.Multi{
		report.NewConsole(os.Stdout),
		report.NewLog(logger),
		metrics.NewReporter(),
	}

	newLibrary := func(workers int) cli.Library {
		downloader := worker.NewDownloadWorker(fetch, files, reporter, logger, workers)
		return svc.NewLibraryService(res, ledger, downloader, ledgerFiles, logger)
	}

	serve := func(ctx context.Context, lib cli.Library) error {
		return runServer(ctx, cfg, lib, ledger, ledgerFiles, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, newLibrary, serve, os.Stdin, os.Stdout, logger)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ytfetch: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg *cfgpkg.Config, runner svc.Runner, ledger *storage.LedgerStore, files svc.LedgerFiles, logger *slog.Logger) error {
	batchStorage, err := storage.NewBatchStorage(cfg.StateDir, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize batch storage: %w", err)
	}

	batchService := svc.NewBatchService(runner, batchStorage, cfg.OutputDir, logger)
	if n, err := batchService.RecoverPendingBatches(ctx); err != nil {
		logger.Error("failed to recover pending batches", "error", err)
	} else if n > 0 {
		logger.Info("recovered pending batches", "count", n)
	}

	ledgerHandler := h.NewLedgerHandler(ledger, map[string]string{
		"pending":    files.Pending,
		"downloaded": files.Downloaded,
	}, logger)

	router := h.NewRouter(batchService, ledgerHandler, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	} else {
		logger.Info("server stopped gracefully")
	}

	if err := batchService.Shutdown(shutdownCtx); err != nil {
		logger.Error("batch service shutdown failed", "error", err)
	}
	return nil
}
