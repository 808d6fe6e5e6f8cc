package main

import (
	"context"
	"ctchen222/tictactoe-minimax/internal/api/service"
	"ctchen222/tictactoe-minimax/internal/config"
	"ctchen222/tictactoe-minimax/internal/db"
	"ctchen222/tictactoe-minimax/internal/events"
	"ctchen222/tictactoe-minimax/internal/logger"
	"ctchen222/tictactoe-minimax/internal/repository"
	"ctchen222/tictactoe-minimax/internal/server"
	"ctchen222/tictactoe-minimax/internal/session"
	"ctchen222/tictactoe-minimax/internal/telemetry"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file; the environment is used when it does not exist")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Otel)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	logger.Init(cfg.LogLevel)

	// Initialize Redis
	rdb, err := db.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// Initialize SQLite DB
	DB, err := db.Connect(ctx, cfg.SQLitePath)
	if err != nil {
		log.Fatalf("failed to get sqlite db connection: %v", err)
	}
	defer DB.Close()
	if err := db.InitializeDB(ctx, DB); err != nil {
		log.Fatalf("failed to initialize sqlite db: %v", err)
	}

	bus := events.NewRedisBus(rdb)
	archive := repository.NewRoundRepository(DB)
	authService := service.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	manager := session.NewManager(session.Deps{Publisher: bus, Archive: archive}, cfg.Game.Bot, cfg.Game.SessionTTL)
	go manager.Run(ctx)

	srv := server.NewServer(manager, bus, archive, authService)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("http server started", "http.addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	manager.CloseAll(shutdownCtx)

	slog.Info("Server exiting")
}
