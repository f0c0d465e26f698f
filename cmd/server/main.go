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
	"time"

	"chat-hub/auth"
	"chat-hub/internal"
	"chat-hub/moderation"
	"chat-hub/realtime"
	"chat-hub/repositories"
	"chat-hub/server"
	"chat-hub/services"
	"chat-hub/storage"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanups always execute.
func run() (int, error) {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	// 1. Configuration & Logger
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	replacement, err := config.ReplacementRune()
	if err != nil {
		return exitConfig, err
	}

	logger := internal.LoggerFromLevel(config.LogLevel)
	ctx := context.Background()

	// 2. Storage (BadgerDB, Bluge, object store)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	files, err := storage.NewFileStore(config.FileStorePath, config.PublicBaseURL, logger)
	if err != nil {
		return exitRuntime, err
	}

	moderator, err := moderation.NewModeratorFromList(config.CensoredWords, replacement)
	if err != nil {
		return exitConfig, fmt.Errorf("moderator init failed: %w", err)
	}

	limitMessages := config.LimitMessages
	if limitMessages == nil {
		limitMessages = lo.ToPtr(20)
	}

	// 3. Repositories
	userRepository := repositories.NewUserRepository(db, blugeWriter)
	chatRepository := repositories.NewChatRepository(db)
	messageRepository := repositories.NewMessageRepository(db, logger, limitMessages)
	requestRepository := repositories.NewRequestRepository(db)

	// 4. Realtime core
	registry := realtime.NewRegistry()
	presence := realtime.NewPresence()
	router := realtime.NewRouter(registry, logger)
	dispatcher := realtime.NewDispatcher(registry, presence, router, messageRepository, &moderator, logger)

	// 5. Services
	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	userService := services.NewUserService(userRepository, chatRepository, requestRepository, files, tokens, router, logger)
	chatService := services.NewChatService(chatRepository, userRepository, messageRepository, files, router, logger)
	adminService := services.NewAdminService(userRepository, chatRepository, messageRepository, registry, tokens, config.AdminSecretKey, logger)
	socketAuth := auth.NewSocketAuthenticator(tokens, userService, logger)

	muxRouter := server.NewRouter(server.Deps{
		Users:          userService,
		Chats:          chatService,
		Admin:          adminService,
		Tokens:         tokens,
		SocketAuth:     socketAuth,
		Dispatcher:     dispatcher,
		FilesDir:       files.Dir(),
		SendBufferSize: config.SendBufferSize,
		SessionMaxAge:  int(config.AuthTokenDuration.Seconds()),
		CookieSecure:   config.CookieSecure,
		Log:            logger,
	})

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", config.Port),
		Handler: muxRouter,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("http shutdown failed: %w", err)
	}
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
