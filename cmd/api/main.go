package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/connectfour/backend/internal/config"
	"github.com/connectfour/backend/internal/logger"
	"github.com/connectfour/backend/internal/repository/memory"
	mongorepo "github.com/connectfour/backend/internal/repository/mongo"
	"github.com/connectfour/backend/internal/repository/postgres"
	redisrepo "github.com/connectfour/backend/internal/repository/redis"
	"github.com/connectfour/backend/internal/service/cleanup"
	"github.com/connectfour/backend/internal/service/game"
	transportHttp "github.com/connectfour/backend/internal/transport/http"
	"github.com/connectfour/backend/internal/transport/http/middleware"
	"github.com/connectfour/backend/internal/transport/websocket"
	"github.com/connectfour/backend/pkg/auth"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		// logger config depends on cfg, so fall back to a default one here
		zap.NewExample().Sugar().Fatalf("Invalid configuration: %v", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	store, closeStore := initSessionStore(ctx, cfg, log)
	defer closeStore()

	archive, closeArchive := initArchive(ctx, cfg, log)
	defer closeArchive()

	// 2. Services
	gameService := game.NewService(store, archive, log, game.Options{
		Policy:        cfg.MovePolicy,
		BotDifficulty: cfg.BotDifficulty,
		BotDelay:      cfg.BotDelay,
		MoveRetries:   cfg.MoveRetries,
	})
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	// 3. Background workers
	cleanupWorker := cleanup.NewWorker(gameService, cfg.CleanupInterval, cfg.FinishedGameTTL, cfg.InviteTTL, log)
	go cleanupWorker.Start(ctx)

	// 4. Router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())

	api := transportHttp.NewServer(gameService, issuer, log)
	api.Routes(router, cfg.AllowedOrigins)

	wsHandler := websocket.NewHandler(gameService, issuer, cfg.AllowedOrigins, log)
	router.GET("/ws/games/:id", wsHandler.HandleGame)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Server starting on :%s (store=%s, archive=%s, policy=%s)",
			cfg.Port, cfg.StoreBackend, cfg.ArchiveBackend, cfg.MovePolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	// let pending archive writes and bot turns finish
	gameService.Wait()
	log.Info("Server exited gracefully")
}

func initSessionStore(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (game.SessionStore, func()) {
	if cfg.StoreBackend != config.BackendRedis {
		log.Info("[STORE] Using in-memory session store")
		return memory.NewStore(), func() {}
	}

	client, err := redisrepo.NewClient(ctx, redisrepo.Options{URL: cfg.RedisURL, Password: cfg.RedisPassword}, log)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	return redisrepo.NewStore(client, log, cfg.FinishedGameTTL), closer(log, "redis", client.Close)
}

func initArchive(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (game.Archive, func()) {
	switch cfg.ArchiveBackend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, postgres.Options{
			URL:                cfg.DatabaseURL,
			MaxOpenConns:       cfg.DBMaxOpenConns,
			MaxIdleConns:       cfg.DBMaxIdleConns,
			ConnMaxLifetimeMin: cfg.DBConnMaxLifetimeMin,
		}, log)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		return postgres.NewGameRepo(db), closer(log, "postgres", db.Close)

	case config.BackendMongo:
		client, err := mongorepo.Connect(ctx, cfg.MongoURI, log)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		archive := mongorepo.NewArchive(client.Database(cfg.MongoDatabase), log)
		if err := archive.EnsureIndexes(ctx); err != nil {
			log.Warnf("[MONGO] %v", err)
		}
		return archive, closer(log, "mongo", func() error { return disconnect(client) })

	default:
		log.Info("[ARCHIVE] Using in-memory archive")
		return memory.NewArchive(), func() {}
	}
}

func disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}

func closer(log *zap.SugaredLogger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.Warnf("Error closing %s: %v", name, err)
		}
	}
}
