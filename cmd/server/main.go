package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/medilink/signaling/internal/adapters/http"
	"github.com/medilink/signaling/internal/adapters/sse"
	"github.com/medilink/signaling/internal/adapters/ws"
	"github.com/medilink/signaling/internal/call"
	"github.com/medilink/signaling/internal/config"
	"github.com/medilink/signaling/internal/core"
	"github.com/medilink/signaling/internal/directory"
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
		log.Error().Err(err).Msg("failed to load config")
	}

	registry := core.NewRegistry()
	rooms := core.NewRoomSet()
	msgRouter := core.NewRouter(registry, rooms)
	dir := directory.NewMemory()

	calls := call.NewStore(dir, msgRouter,
		call.WithRingTimeout(cfg.RingTimeout),
		call.WithJoinBaseURL(cfg.JoinBaseURL),
	)

	wsCtl := &ws.Controller{
		Registry:   registry,
		Rooms:      rooms,
		Router:     msgRouter,
		Limiter:    ws.NewRateLimiter(cfg.RateLimit, cfg.RateLimitInterval),
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		SendBuffer: cfg.SendBuffer,
	}
	sseCtl := &sse.Controller{
		Registry:   registry,
		Rooms:      rooms,
		Router:     msgRouter,
		SendBuffer: cfg.SendBuffer,
	}

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Registry:  registry,
		Rooms:     rooms,
		Router:    msgRouter,
		Calls:     calls,
		Directory: dir,
		WS:        wsCtl,
		SSE:       sseCtl,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Signaling server started")
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
