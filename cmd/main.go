/*
Package main is the entry point for the chat relay.

It loads configuration, initializes logging and metrics, starts the chat Hub and
the HTTP server, and shuts everything down gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/app/storage"
	"chatrelay/internal/configs"
	"chatrelay/internal/handler"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/metrics"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("sweep_interval", cfg.SweepInterval).
		Bool("suppress_duplicate_joins", cfg.SuppressDuplicateJoins).
		Bool("s3", cfg.UseS3()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewService(ctx, storage.ServiceConfig{
		Dir:               cfg.UploadDir,
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3Region:          cfg.S3Region,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize file storage")
	}

	m := metrics.New()

	hub := chat.NewHub(chat.Config{
		SweepInterval:          cfg.SweepInterval,
		SuppressDuplicateJoins: cfg.SuppressDuplicateJoins,
		Metrics:                m,
	})
	hub.Run()

	socketLimiter := handler.NewSocketLimiter()
	uploadLimiter := handler.NewUploadLimiter()

	router := handler.Router(&handler.AppDeps{
		Hub:           hub,
		Config:        cfg,
		Storage:       store,
		Metrics:       m,
		SocketLimiter: socketLimiter,
		UploadLimiter: uploadLimiter,
	})

	serverAddr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info("Chat relay starting", "addr", serverAddr, "storage", store.Backend())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	hub.Shutdown()
	socketLimiter.Stop()
	uploadLimiter.Stop()

	logx.Info("Server gracefully stopped.")
}
