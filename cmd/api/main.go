// server/cmd/api/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"reagent-inventory-api-server/config"
	"reagent-inventory-api-server/internal/api/handlers"
	"reagent-inventory-api-server/internal/api/routes"
	"reagent-inventory-api-server/internal/auth"
	"reagent-inventory-api-server/internal/cooldown"
	"reagent-inventory-api-server/internal/database"
	"reagent-inventory-api-server/internal/decoder"
	"reagent-inventory-api-server/internal/logger"
	"reagent-inventory-api-server/internal/reconciler"
	"reagent-inventory-api-server/internal/report"
	"reagent-inventory-api-server/internal/s3"
	"reagent-inventory-api-server/internal/socket"
	"reagent-inventory-api-server/internal/store"
)

func main() {
	// 1. Load .env (optional) and configuration
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	// 2. Logger
	logg := logger.New(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level})
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logg)
	stop()
	if err != nil {
		logg.Fatal().Err(err).Msg("server stopped")
	}
}

// run owns every resource opened after configuration; its deferred cleanup
// runs on both failure and shutdown.
func run(ctx context.Context, cfg config.Config, logg zerolog.Logger) error {
	// 3. Stores
	var (
		items store.ItemStore
		logs  store.LogStore
		users store.UserStore
		ping  func(context.Context) error
	)
	if cfg.Mongo.URI != "" {
		client, err := database.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logg.Error().Err(err).Msg("failed to disconnect from MongoDB")
			}
		}()

		db := client.Database(cfg.Mongo.DBName)
		indexCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
		err = store.EnsureIndexes(indexCtx, db)
		cancel()
		if err != nil {
			return err
		}

		items, logs, users = store.NewMongoItems(db), store.NewMongoLogs(db), store.NewMongoUsers(db)
		ping = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		logg.Info().Str("db", cfg.Mongo.DBName).Msg("connected to MongoDB")
	} else {
		mem := store.NewMemoryStore()
		items, logs, users = mem.Items(), mem.Logs(), mem.Users()
		logg.Warn().Msg("mongo.uri not set, using in-memory store; data is lost on restart")
	}

	if err := database.SeedAdmin(ctx, users, cfg.Admin, logg); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// 4. Scan cooldown
	gate, closeGate, err := newCooldownGate(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeGate()

	// 5. Optional scan image archive
	var archiver handlers.ImageArchiver
	if cfg.S3.Enabled() {
		uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			return err
		}
		archiver = uploader
		logg.Info().Str("bucket", cfg.S3.Bucket).Msg("scan images will be archived")
	}

	// 6. Domain services and router
	rec := reconciler.New(items, logs, gate, reconciler.WithLogger(logg.With().Str("component", "reconciler").Logger()))
	hub := socket.NewHub(logg.With().Str("component", "hub").Logger())

	router := routes.SetupRouter(routes.Dependencies{
		Config:     cfg,
		Log:        logg,
		Items:      items,
		Logs:       logs,
		Users:      users,
		Reconciler: rec,
		Decoder:    decoder.New(),
		Archiver:   archiver,
		Hub:        hub,
		Tokens:     auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer),
		Report:     report.NewInventoryReport("Reagent inventory"),
		Ping:       ping,
	})

	// 7. Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logg.Info().Str("port", cfg.Server.Port).Msg("starting API server")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// newCooldownGate shares the window through Redis when configured. The
// returned func releases the Redis client.
func newCooldownGate(ctx context.Context, cfg config.Config, logg zerolog.Logger) (cooldown.Gate, func(), error) {
	noop := func() {}
	if cfg.Scan.Cooldown == 0 {
		return cooldown.Disabled{}, noop, nil
	}
	if cfg.Redis.Addr == "" {
		return cooldown.NewMemoryGate(cfg.Scan.Cooldown, time.Now), noop, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closeClient := func() {
		if err := client.Close(); err != nil {
			logg.Error().Err(err).Msg("failed to close Redis client")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		closeClient()
		return nil, nil, fmt.Errorf("connect to Redis at %s: %w", cfg.Redis.Addr, err)
	}
	logg.Info().Str("addr", cfg.Redis.Addr).Msg("scan cooldown shared through Redis")
	return cooldown.NewRedisGate(client, cfg.Scan.Cooldown), closeClient, nil
}
