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

	httpadp "rentadvance-backend/internal/adapter/http"
	"rentadvance-backend/internal/adapter/middleware"
	"rentadvance-backend/internal/adapter/notify"
	"rentadvance-backend/internal/adapter/realtime"
	"rentadvance-backend/internal/adapter/repository/gormstore"
	"rentadvance-backend/internal/adapter/repository/redisstore"
	"rentadvance-backend/internal/adapter/scheduler"
	"rentadvance-backend/internal/config"
	"rentadvance-backend/internal/infrastructure/cache"
	"rentadvance-backend/internal/infrastructure/db"
	"rentadvance-backend/internal/infrastructure/logging"
	"rentadvance-backend/internal/infrastructure/messaging"
	advanceuc "rentadvance-backend/internal/usecase/advance"
	suggestionuc "rentadvance-backend/internal/usecase/suggestion"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.AppEnv, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}
	defer sqlDB.Close()
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	hub := realtime.NewHub(cfg.JWTSecret, cfg.AllowedOrigins, log)
	go hub.Run(ctx)

	notifiers := notify.Fanout{hub}
	if cfg.NATSURL != "" {
		nc, err := messaging.OpenNATS(cfg.NATSURL, logging.ServiceName, log)
		if err != nil {
			log.Warn().Err(err).Msg("nats unavailable, notifications will only be logged")
			notifiers = append(notifiers, notify.NewLogNotifier(log))
		} else {
			defer func() { _ = nc.Drain() }()
			notifiers = append(notifiers, notify.NewNATSNotifier(nc, log))
		}
	} else {
		notifiers = append(notifiers, notify.NewLogNotifier(log))
	}

	advances := advanceuc.NewUsecase(
		gormstore.NewAdvanceRepository(gdb),
		gormstore.NewGormUoW(gdb),
		notifiers,
		log,
		advanceuc.Config{
			PortalBaseURL:            cfg.PortalBaseURL,
			DefaultCommissionRate:    cfg.DefaultCommissionRate,
			RequireOwnerVerification: cfg.RequireOwnerVerification,
		},
	)
	suggestions := suggestionuc.NewUsecase(redisstore.NewSuggestionStore(rdb), cfg.SuggestionTTL(), log)

	sweeper, err := scheduler.NewExpiryJob(cfg.ExpirySweepCron, advances, log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid expiry schedule")
	}
	sweeper.Start()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.RequestID(), middleware.RequestLogger(log), echomw.Recover())

	httpadp.Routes{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "db", Fn: sqlDB.PingContext},
			httpadp.Check{Name: "redis", Fn: cache.Ping(rdb)},
		),
		Advances:    httpadp.NewAdvanceHandler(advances, suggestions, cfg.DefaultCommissionRate, log),
		Admin:       httpadp.NewAdminHandler(advances, log),
		Suggestions: httpadp.NewSuggestionHandler(suggestions, log),
		Realtime:    hub.ServeWs,
		Idempotency: middleware.Idempotency(rdb, cfg.IdempotencyTTL(), log),
		JWTSecret:   cfg.JWTSecret,
	}.Register(e)

	addr := ":" + cfg.AppPort
	go func() {
		log.Info().Str("addr", addr).Str("db_driver", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	sweeper.Stop(shutdownCtx)
	log.Info().Msg("stopped")
}
