package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"holdem-room/engine"
	"holdem-room/internal/config"
	"holdem-room/internal/db"
	"holdem-room/internal/history"
	"holdem-room/internal/logging"
	"holdem-room/internal/middleware"
	"holdem-room/internal/redis"
	"holdem-room/server"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.Environment)

	recorders, historySource, checks, closers := openArchives(cfg, logger)
	defer func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}()

	hub := server.NewHub(logging.Component(logger, "hub"))

	opts := engine.Options{
		SmallBlind:    cfg.SmallBlind,
		BigBlind:      cfg.BigBlind,
		DefaultChips:  cfg.DefaultChips,
		AIDelay:       cfg.AIDelay,
		RebuyApproval: cfg.RebuyApproval,
		Logger:        &logger,
	}
	if len(recorders) > 0 {
		opts.Recorder = recorders
	}
	rooms := engine.NewRoomManager(hub, opts)

	intentLimit := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		CleanupInterval:   5 * time.Minute,
	}, logging.Component(logger, "ratelimit"))
	defer intentLimit.Stop()

	httpLimit := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig, logging.Component(logger, "ratelimit"))
	defer httpLimit.Stop()

	tracker := server.NewActionTracker(5 * time.Minute)
	defer tracker.Stop()

	gatewayLog := logging.Component(logger, "gateway")
	handler := server.NewCommandHandler(rooms, hub, intentLimit, tracker, gatewayLog)
	gateway := &server.Gateway{
		Hub:        hub,
		Handler:    handler,
		Rooms:      rooms,
		History:    historySource,
		Checks:     checks,
		HTTPLimit:  httpLimit,
		Production: cfg.IsProduction(),
		Log:        gatewayLog,
	}

	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", cfg.ServerPort),
		Handler:           gateway.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("port", cfg.ServerPort).Msg("HTTP/WebSocket server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	var tcpServer *server.TCPServer
	if cfg.TCPPort != "" {
		tcpServer = server.NewTCPServer(net.JoinHostPort("", cfg.TCPPort), hub, handler, logging.Component(logger, "tcp"))
		go func() {
			if err := tcpServer.Start(); err != nil {
				logger.Fatal().Err(err).Msg("TCP server failed")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Int("rooms", rooms.Count()).Int("clients", hub.ClientCount()).Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("HTTP shutdown")
	}
	if tcpServer != nil {
		tcpServer.Stop()
	}
	rooms.Shutdown()
	hub.CloseAll()
}

// openArchives connects whichever archive backends are configured. Failure
// to reach one is logged and play continues without it.
func openArchives(cfg config.Config, logger zerolog.Logger) (engine.MultiRecorder, server.HistorySource, map[string]server.HealthChecker, []func()) {
	var recorders engine.MultiRecorder
	var source server.HistorySource
	var closers []func()
	checks := map[string]server.HealthChecker{}

	database, err := db.New(cfg.DBConfig)
	switch {
	case errors.Is(err, db.ErrDisabled):
		logger.Info().Msg("match archive disabled")
	case err != nil:
		logger.Error().Err(err).Str("driver", cfg.DBConfig.Driver).Msg("match archive unavailable")
	default:
		store, err := history.NewStore(database, logging.Component(logger, "history"))
		if err != nil {
			logger.Error().Err(err).Msg("match archive unavailable")
			_ = database.Close()
			break
		}
		recorders = append(recorders, store)
		source = store
		checks["database"] = database
		closers = append(closers, func() { _ = database.Close() })
		logger.Info().Str("driver", cfg.DBConfig.Driver).Msg("match archive enabled")
	}

	if cfg.RedisEnabled {
		client, err := redis.New(cfg.RedisConfig, logging.Component(logger, "redis"))
		if err != nil {
			logger.Error().Err(err).Msg("redis publisher unavailable")
		} else {
			publisher := redis.NewPublisher(client)
			recorders = append(recorders, publisher)
			if source == nil {
				source = publisher
			}
			checks["redis"] = client
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	return recorders, source, checks, closers
}
