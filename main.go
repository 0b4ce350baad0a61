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

	"github.com/isdelr/replydesk/internal/api"
	"github.com/isdelr/replydesk/internal/api/handlers"
	"github.com/isdelr/replydesk/internal/api/ratelimit"
	"github.com/isdelr/replydesk/internal/auth"
	"github.com/isdelr/replydesk/internal/config"
	"github.com/isdelr/replydesk/internal/database"
	"github.com/isdelr/replydesk/internal/logger"
	"github.com/isdelr/replydesk/internal/monitoring"
	"github.com/isdelr/replydesk/internal/reply"
	"github.com/isdelr/replydesk/internal/services"
	"github.com/isdelr/replydesk/internal/store"
	"github.com/isdelr/replydesk/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	st := store.NewSQLite(db)

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token service")
	}

	generator, err := reply.New(reply.Config{
		Mode:      reply.ModeFromKey(cfg.OpenAIKey),
		APIKey:    cfg.OpenAIKey,
		Endpoint:  cfg.OpenAIEndpoint,
		Model:     cfg.OpenAIModel,
		MaxTokens: cfg.ReplyMaxTokens,
		Timeout:   cfg.ReplyTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize reply generator")
	}
	log.Info().Str("mode", generator.Mode().String()).Msg("Reply generator ready")

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(st, auth.NewPasswordHasher(cfg.BcryptCost), tokens)
	businessService := services.NewBusinessService(st)
	chatService := services.NewChatService(st, generator, hub)

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(15 * time.Second)
	go statUpdater.Run()

	// Set up and run the maintenance scheduler
	scheduler, err := monitoring.NewScheduler(cfg.MaintenanceCron, "sqlite-optimize", func(ctx context.Context) error {
		return database.Optimize(ctx, db)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize maintenance scheduler")
	}
	scheduler.Run()

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	authLimiter := ratelimit.PerMinute(cfg.AuthRatePerMinute)
	authLimiter.StartCleanup(limiterCtx, 10*time.Minute)

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Users:       handlers.NewAuthHandler(userService),
		Business:    handlers.NewBusinessHandler(businessService),
		Chat:        handlers.NewChatHandler(chatService),
		WebSocket:   handlers.NewWebSocketHandler(hub, chatService, cfg.CORSOrigins, cfg.ReplyTimeout+5*time.Second),
		Health:      handlers.NewHealthHandler(st, statUpdater, generator.Mode().String()),
		Tokens:      tokens,
		AuthLimiter: authLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	stopLimiter()
	statUpdater.Stop() // Stop the monitoring service
	scheduler.Stop()   // Stop the scheduler
	hub.Stop()

	log.Info().Msg("Server exiting")
}
