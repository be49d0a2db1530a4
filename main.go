package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/config"
	"github.com/nijaru/yt-summarize/handlers/api"
	"github.com/nijaru/yt-summarize/logger"
	"github.com/nijaru/yt-summarize/scripts"
	"github.com/nijaru/yt-summarize/services/summary"
	"github.com/nijaru/yt-summarize/services/transcript"
	"github.com/nijaru/yt-summarize/tokenizer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, logFile, err := logger.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logFile.Close()

	if err := run(cfg, appLogger); err != nil {
		appLogger.WithError(err).Error("Server stopped with error")
		logFile.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tok, err := tokenizer.FromFile(cfg.Summary.TokenizerPath)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"backend": cfg.Summary.Backend,
		"model":   cfg.Summary.Model,
	}).Info("Loading summarization model")

	model, err := summary.NewModel(ctx, cfg.Summary, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := model.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close summarization model")
		}
	}()

	svc := summary.NewService(
		newFetcher(cfg, logger),
		model,
		summary.NewChunker(tok, cfg.Summary.ChunkMaxTokens),
		summary.NewConfig(cfg.Summary),
		logger,
	)

	server := api.NewServer(cfg,
		api.WithLogger(logger),
		api.WithSummaryService(svc, model.Name()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func newFetcher(cfg *config.Config, logger *logrus.Logger) transcript.Fetcher {
	if cfg.Transcript.Source == config.SourceYtDlp {
		runner := scripts.NewRunner(nil).WithLogger(logger)
		return transcript.NewYtDlpFetcher(cfg.Transcript, cfg.TempDir, runner, logger)
	}
	return transcript.NewYouTubeFetcher(cfg.Transcript, logger)
}
