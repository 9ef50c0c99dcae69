package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/teamflow/realtime/internal/adapters/chat"
	router "github.com/teamflow/realtime/internal/adapters/http"
	"github.com/teamflow/realtime/internal/app"
	"github.com/teamflow/realtime/internal/auth"
	"github.com/teamflow/realtime/internal/config"
	"github.com/teamflow/realtime/internal/core"
	"github.com/teamflow/realtime/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	users := store.NewUserStore(db)
	rooms := store.NewRoomStore(db)
	messages := store.NewMessageStore(db)
	tokens := auth.NewValidator(cfg.Secret, users)

	registry := app.NewRegistry()
	var fabric core.Fabric = registry
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		fabric = app.NewRedisFabric(ctx, registry, rdb)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis fabric enabled")
	}

	limiter := chat.NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateWindow)
	ctl := chat.NewController(fabric, rooms, messages, tokens, limiter, chat.Options{
		ReadLimit:    cfg.ReadLimit,
		PingPeriod:   cfg.PingPeriod,
		WriteTimeout: cfg.WriteTimeout,
		SendBuffer:   cfg.SendBuffer,
	})
	api := router.NewAPI(tokens, rooms, messages)

	r := router.SetupRouter(ctx, cfg, ctl, api)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("realtime server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
