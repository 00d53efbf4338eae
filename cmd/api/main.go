package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petmatch/internal/adapters/auth/remote"
	"petmatch/internal/adapters/blob/cloudinary"
	"petmatch/internal/adapters/cache/rediscache"
	"petmatch/internal/adapters/storage/mongodb"
	"petmatch/internal/adapters/storage/postgres"
	"petmatch/internal/changefeed"
	"petmatch/internal/config"
	"petmatch/internal/platform/logger"
	"petmatch/internal/router"

	"github.com/joho/godotenv"
)

// @title PetMatch API
// @version 1.0
// @description Anuncios de mascotas en adopción y solicitudes entre adoptantes y refugios.
// @BasePath /
func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

// run no llama a os.Exit: los defers (storage, Redis, Sync del logger)
// tienen que correr.
func run() error {
	// .env es opcional (dev); en producción todo viene del entorno.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer func() { _ = zl.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownLive := make(chan struct{})
	opts := router.Options{Config: cfg, Logger: log, Shutdown: shutdownLive}

	closeStorage, err := wireStorage(ctx, cfg, log, &opts)
	if err != nil {
		log.Error("storage init failed", map[string]any{"driver": cfg.Storage(), "err": err})
		return err
	}
	defer closeStorage()

	closeRedis, err := wireRedis(ctx, cfg, log, &opts)
	if err != nil {
		log.Error("redis init failed", map[string]any{"err": err})
		return err
	}
	defer closeRedis()

	if cfg.CloudinaryConfigured() {
		store, err := cloudinary.New(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.BlobFolder)
		if err != nil {
			log.Error("cloudinary init failed", map[string]any{"err": err})
			return err
		}
		opts.Blobs = store
		log.Info("blob store: cloudinary", map[string]any{"folder": cfg.BlobFolder})
	} else {
		log.Warn("cloudinary not configured, photos kept in memory", nil)
	}

	if cfg.AuthProvider == "remote" {
		client, err := remote.NewClient(remote.Config{
			BaseURL: cfg.AuthBaseURL,
			APIKey:  cfg.AuthAPIKey,
			Timeout: 10 * time.Second,
		})
		if err != nil {
			log.Error("remote auth init failed", map[string]any{"err": err})
			return err
		}
		opts.Provider = client
	}
	log.Info("auth provider", map[string]any{"provider": cfg.AuthProvider, "debug_header": cfg.AuthDebugHeader})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Sin WriteTimeout: los websockets de /live quedan abiertos.
		IdleTimeout: 60 * time.Second,
	}
	// Shutdown no espera a los websockets; se les avisa para que cierren.
	srv.RegisterOnShutdown(func() { close(shutdownLive) })

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "env": cfg.Environment})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"err": err})
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", map[string]any{"err": err})
		return err
	}
	log.Info("server stopped", nil)
	return nil
}

func wireStorage(ctx context.Context, cfg *config.Config, log logger.Logger, opts *router.Options) (func(), error) {
	switch cfg.Storage() {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(db, log.With(map[string]any{"module": "migrate"})); err != nil {
			_ = db.Close()
			return nil, err
		}
		accounts := postgres.NewAccountsRepo(db)
		opts.Accounts = accounts
		opts.Credentials = accounts
		opts.Pets = postgres.NewPetsRepo(db)
		opts.Adoptions = postgres.NewAdoptionsRepo(db)
		log.Info("storage: postgres", nil)
		return func() { _ = db.Close() }, nil

	case "mongo":
		client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		accounts := mongodb.NewAccountsRepo(db)
		opts.Accounts = accounts
		opts.Credentials = accounts
		opts.Pets = mongodb.NewPetsRepo(db)
		opts.Adoptions = mongodb.NewAdoptionsRepo(db)
		log.Info("storage: mongo", map[string]any{"database": cfg.MongoDatabase})
		return func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}, nil
	}

	log.Warn("storage: memory (data is lost on restart)", nil)
	return func() {}, nil
}

// wireRedis comparte sesiones, contador de fallos, idempotencia y el feed de
// cambios entre réplicas. Sin REDIS_URL todo queda en memoria del proceso.
func wireRedis(ctx context.Context, cfg *config.Config, log logger.Logger, opts *router.Options) (func(), error) {
	if cfg.RedisURL == "" {
		return func() {}, nil
	}

	rdb, err := rediscache.Open(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	opts.Sessions = rediscache.NewSessions(rdb)
	opts.Failures = rediscache.NewCounter(rdb)
	opts.Idempotency = rediscache.NewIdempotency(rdb)

	feed := rediscache.NewFeed(rdb, changefeed.NewHub(), log.With(map[string]any{"module": "feed"}))
	feed.Start(ctx)
	opts.Feed = feed

	log.Info("redis connected", nil)
	return func() { _ = rdb.Close() }, nil
}
