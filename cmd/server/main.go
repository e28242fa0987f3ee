package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/kim-jongsoung/tikfind/internal/coach"
	"github.com/kim-jongsoung/tikfind/internal/coachcache"
	"github.com/kim-jongsoung/tikfind/internal/collector"
	"github.com/kim-jongsoung/tikfind/internal/config"
	"github.com/kim-jongsoung/tikfind/internal/database"
	"github.com/kim-jongsoung/tikfind/internal/ingest"
	"github.com/kim-jongsoung/tikfind/internal/logging"
	"github.com/kim-jongsoung/tikfind/internal/redis"
	"github.com/kim-jongsoung/tikfind/internal/relay"
	"github.com/kim-jongsoung/tikfind/internal/resolver"
	"github.com/kim-jongsoung/tikfind/internal/server"
	"github.com/kim-jongsoung/tikfind/internal/songqueue"
	"github.com/kim-jongsoung/tikfind/internal/websocket"
	"github.com/kim-jongsoung/tikfind/internal/youtube"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, manager *collector.Manager, hub *websocket.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		manager.Shutdown()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	usage := redis.NewUsageStore(redisClient)
	catalog := database.NewCatalogRepo(pool)

	search := youtube.NewClient(cfg.YouTubeAPIKey)
	songResolver := resolver.New(catalog, search, clock)

	coachCache := coachcache.New(cfg.CoachCacheCapacity)
	coachSvc := coach.NewService(cfg.OpenAIAPIKey, coachCache)

	queue := songqueue.NewManager(clock, cfg.DefaultCooldownMinutes)
	hub := websocket.NewHub()

	rel := relay.New(hub, songResolver, queue, coachSvc, usage, clock)

	source := ingest.NewSource(cfg.IngestBuffer)
	manager := collector.NewManager(source, rel, clock)

	srv := server.NewServer(cfg, manager, rel, queue, source, hub, pool, redisClient)

	done := runGracefulShutdown(srv, manager, hub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
