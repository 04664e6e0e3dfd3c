package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mugiliam/hatchreposrv/internal/buildcache"
	"github.com/mugiliam/hatchreposrv/internal/config"
	"github.com/mugiliam/hatchreposrv/internal/db/dbmanager"
	"github.com/mugiliam/hatchreposrv/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", os.Getenv("REPOSRV_CONFIG"), "path to the TOML configuration file")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	ctx := log.Logger.WithContext(context.Background())

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	store, err := dbmanager.NewStore(ctx, cfg.Storage, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create catalog store")
	}
	defer store.Close(ctx)

	var tracker *buildcache.Tracker
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		tracker = buildcache.NewTracker(rdb)
	}

	s, err := server.CreateNewServer(cfg, store, tracker)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}
	s.MountHandlers()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: s.Router,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Bool("development", cfg.DevelopmentMode).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-done
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown was not clean")
	}
}
