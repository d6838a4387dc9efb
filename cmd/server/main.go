package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/themax-01/heartbond-moments/internal/auth"
	"github.com/themax-01/heartbond-moments/internal/feed"
	"github.com/themax-01/heartbond-moments/internal/server"
	"github.com/themax-01/heartbond-moments/internal/storage/sqlite"
	"github.com/themax-01/heartbond-moments/pkg/logging"
)

const tokenDuration = 30 * 24 * time.Hour

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	logging.Setup()

	addr := getEnv("ADDR", ":8080")
	dbPath := getEnv("DB_PATH", "./data/heartbond.db")
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-change-me"
		slog.Warn("JWT_SECRET not set, using insecure development secret")
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", dbPath)

	hub := feed.NewHub()
	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)
	srv := server.New(store, hub, jwtManager)

	// h2c allows HTTP/2 without TLS for local and reverse-proxied deployments.
	handler := h2c.NewHandler(srv.Router(), &http2.Server{})
	httpServer := &http.Server{Addr: addr, Handler: handler}

	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-ctrlc
		slog.Info("signal caught, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "address", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
