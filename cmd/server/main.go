package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyplanner-backend/internal/config"
	"studyplanner-backend/internal/database"
	"studyplanner-backend/internal/handlers"
	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/middleware"
	"studyplanner-backend/internal/progress"
	"studyplanner-backend/internal/repository"
	"studyplanner-backend/internal/router"
	"studyplanner-backend/internal/services"
	"studyplanner-backend/internal/websocket"
	"studyplanner-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting study planner backend", "env", cfg.Env)

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", "error", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}

	// ──── Step 4: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", "error", err)
	}
	defer redisClients.Close()
	log.Info("redis connected")

	// ──── Initialize Services ────
	store := repository.NewStore(pool)
	engine := progress.NewEngine(log)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	publisher := services.NewRedisPublisher(redisClients.Cache)
	locker := services.NewRedisUserLocker(redisClients.Cache, cfg.UserLockTTL, cfg.UserLockWait, log)
	mutator := services.NewMutator(store, engine, locker, publisher, log)

	authService := services.NewAuthService(store, engine, redisClients.Cache, jwtAuth, log)
	contentService := services.NewContentService(mutator, store, log)
	progressService := services.NewProgressService(mutator, log)
	plannerService := services.NewPlannerService(mutator, store, log)
	statsService := services.NewStatsService(store, engine, cfg.LeaderboardSize, log)
	transferService := services.NewTransferService(mutator, store, log)

	// ──── Step 5: Start Reminder Worker Pool ────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerPool := worker.NewPool(redisClients.Queue, store, publisher, cfg.WorkerCount, cfg.ReminderPollInterval, log)
	if err := workerPool.Start(ctx); err != nil {
		log.Fatal("worker pool failed to start", "error", err)
	}

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	go authLimiter.RunCleanup(ctx)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(websocket.RedisFeed(redisClients.PubSub), jwtAuth, cfg.FrontendURL, log)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(jwtAuth, authLimiter, router.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Content:   handlers.NewContentHandler(contentService),
		Progress:  handlers.NewProgressHandler(progressService),
		Planner:   handlers.NewPlannerHandler(plannerService),
		Dashboard: handlers.NewDashboardHandler(statsService),
		Transfer:  handlers.NewTransferHandler(transferService),
		WebSocket: wsHub.HandleWebSocket,
	}, cfg.FrontendURL, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "error", err)
		}
		wsHub.Close()
		workerPool.Stop()
	}()

	log.Info("study planner backend ready", "port", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", "error", err)
	}
	<-shutdownDone
}
