package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"movietrack/internal/cache"
	"movietrack/internal/config"
	"movietrack/internal/database"
	"movietrack/internal/handler"
	"movietrack/internal/logger"
	"movietrack/internal/metadata"
	"movietrack/internal/queue"
	redisclient "movietrack/internal/redis"
	"movietrack/internal/repository"
	"movietrack/internal/service"
	"movietrack/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// Run loads config, wires every component and serves until SIGINT/SIGTERM.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to the credential store
	users, closeStore, err := openUserStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Metadata client, cached and event-driven when Redis is configured
	var meta metadata.Client = metadata.NewOMDbClient(cfg.OMDbAPIKey, cfg.OMDbBaseURL)
	var publisher queue.Publisher

	if cfg.RedisURL != "" {
		rc, err := redisclient.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rc.Close()

		cached := metadata.NewCachedClient(meta, cache.NewMetadataCache(rc.Client, cfg.MetadataCacheTTL, log), log)
		meta = cached
		publisher = queue.NewPublisher(rc.Client, log)

		mcfg := worker.DefaultManagerConfig()
		mcfg.WorkerCount = cfg.WorkerCount
		workers := worker.NewManager(queue.NewConsumer(rc.Client, log), worker.NewHandler(cached, log), mcfg, log)
		if err := workers.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer workers.Stop()
	} else {
		log.Info("REDIS_URL not set; metadata cache and list events disabled")
	}

	// 4. Services
	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.TokenMaxAge)
	if err != nil {
		return err
	}
	userService := service.NewUserService(users)
	listService := service.NewListService(users, publisher, log)
	movieService := service.NewMovieService(meta, listService)

	var avatars handler.AvatarUploader
	if cfg.R2Enabled() {
		s3Client, err := service.NewR2Client(ctx, cfg)
		if err != nil {
			return err
		}
		avatars = service.NewMediaService(s3Client, users, cfg.R2BucketName, cfg.R2PublicURL, log)
	}

	// 5. Router and server
	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, tokens, log),
		MovieHandler:   handler.NewMovieHandler(movieService, listService, log),
		UserHandler:    handler.NewUserHandler(listService, avatars, log),
		Tokens:         tokens,
		Users:          users,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AvatarUploads:  avatars != nil,
		Logger:         log,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("api_prefix", cfg.APIPrefix))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// openUserStore connects the backend chosen by STORE_DRIVER.
func openUserStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.UserRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		db, err := database.ConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = db.Client().Disconnect(context.Background()) }

		repo := repository.NewMongoUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to create mongo indexes: %w", err)
		}
		return repo, closeFn, nil

	default:
		db, err := database.Connect(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewUserRepository(db), func() { db.Close() }, nil
	}
}
