package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mindease/backend/internal/analysis/music"
	"github.com/mindease/backend/internal/analysis/sentiment"
	"github.com/mindease/backend/internal/app"
	"github.com/mindease/backend/internal/config"
	"github.com/mindease/backend/internal/handler"
	"github.com/mindease/backend/internal/handler/chat"
	"github.com/mindease/backend/internal/service/ai"
	"github.com/mindease/backend/internal/service/conversation"
	"github.com/mindease/backend/internal/service/safety"
	"github.com/mindease/backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mindease backend exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := app.NewLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("no .env file loaded, using system environment only", "error", envErr)
	}

	repo, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer repo.Close()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	err = repo.Ping(pingCtx)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("history store ready", "driver", cfg.Store.Driver)

	scorer, err := sentiment.NewScorer(cfg.Sentiment.Scorer)
	if err != nil {
		return err
	}

	notifier, closeNotifier, err := safety.NewNotifier(cfg.Notify)
	if err != nil {
		return err
	}
	defer closeNotifier()

	deps := conversation.Deps{
		Classifier:   sentiment.NewClassifier(scorer),
		Recommender:  music.NewMapper(scorer),
		Escalator:    safety.NewHandler(repo, notifier, cfg.Store.Timeout),
		Turns:        repo,
		History:      repo,
		WriteTimeout: cfg.Store.Timeout,
		ReadTimeout:  cfg.Store.Timeout,
	}

	if cfg.AI.Enabled() {
		aiService, err := newAIService(ctx, cfg, repo)
		if err != nil {
			logger.Warn("failed to initialize AI service, continuing without replies", "error", err)
		} else {
			deps.Generator = aiService
			logger.Info("AI service initialized", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
		}
	} else {
		logger.Warn("AI credentials not configured, non-risk messages will fail until a model is set")
	}

	orchestrator, err := conversation.NewOrchestrator(deps)
	if err != nil {
		return err
	}

	router := handler.NewRouter(chat.New(orchestrator, cfg.CORS.AllowedOrigins), cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	logger.Info("MindEase backend listening", "addr", cfg.Server.Addr)
	return runServer(ctx, srv, cfg.Server)
}

func newAIService(ctx context.Context, cfg *config.Config, history ai.HistoryReader) (*ai.Service, error) {
	chatModel, err := ai.NewChatModel(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}
	return ai.NewService(ctx, chatModel, history, cfg.AI, ai.WithHistoryTimeout(cfg.Store.Timeout))
}

func runServer(ctx context.Context, srv *http.Server, serverCfg config.ServerConfig) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down", "timeout", serverCfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
