package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/impostor/go/internal/content"
	"github.com/mcdev12/impostor/go/internal/room/dispatcher"
	"github.com/mcdev12/impostor/go/internal/room/gateway"
	"github.com/mcdev12/impostor/go/internal/room/scheduler"
	"github.com/mcdev12/impostor/go/internal/session"
	"github.com/mcdev12/impostor/go/internal/sweeper"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := loadCatalog(config.WordsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word catalog")
	}

	clock := clockwork.NewRealClock()

	store, err := setupStore(ctx, config, clock)
	if err != nil {
		log.Fatal().Err(err).Str("backend", config.StoreBackend).Msg("failed to set up room store")
	}
	defer store.close()

	publisher, err := setupPublisher(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up event stream")
	}

	sessions := session.NewRegistry(clock, config.SessionTTL)
	timers := scheduler.New(clock)

	connCfg := gateway.DefaultConnectionConfig()
	connCfg.CheckOrigin = checkOrigin(config.AllowedOrigins)
	connections := gateway.NewConnectionManager(connCfg, nil)

	rooms := dispatcher.New(dispatcher.Deps{
		Store:     store,
		Sessions:  sessions,
		Timers:    timers,
		Transport: connections,
		Deck:      catalog,
		Publisher: publisher,
		Clock:     clock,
		Rand:      content.NewLockedRand(nil),
	}, dispatcher.Config{
		GraceWindow:  config.GraceWindow,
		StoreTimeout: config.StoreTimeout,
		TickInterval: config.TickInterval,
	})
	connections.SetActions(rooms)

	sweep, err := sweeper.New(config.SweepSchedule, sessions, store.sweeper, config.StoreTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule sweeps")
	}

	go connections.Start(ctx)
	sweep.Start()

	server := setupServer(config, gateway.NewWebSocketHandler(connections))
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("store", config.StoreBackend).
			Strs("categories", catalog.Categories()).
			Msg("impostor server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	connections.Close()
	timers.Stop()
	sweep.Stop(shutdownCtx)
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event stream")
	}

	log.Info().Msg("server stopped")
}

func loadCatalog(path string) (*content.Catalog, error) {
	if path == "" {
		return content.DefaultCatalog()
	}
	return content.LoadCatalog(path)
}
