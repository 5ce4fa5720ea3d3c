package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"chatscript-bridge/internal/config"
	"chatscript-bridge/internal/handlers"
	"chatscript-bridge/internal/metrics"
	"chatscript-bridge/internal/router"
	"chatscript-bridge/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ──── Step 1: Load Configuration (env, .env, flags) ────
	cfg := config.Load()
	fs := pflag.NewFlagSet("chatscript-bridge", pflag.ExitOnError)
	config.RegisterFlags(fs, cfg)
	fs.Parse(os.Args[1:])
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// ──── Step 2: Build Backend Client and Handlers ────
	m := metrics.New()
	client := services.NewChatScriptClient(cfg.ChatScriptAddr(), cfg.ChatScriptTimeout, cfg.ChatScriptMaxReplyBytes).
		WithLogger(logger)
	chatHandler := handlers.NewChatHandler(client, cfg.MaxBodyBytes, m, logger)

	// ──── Step 3: Start Metrics Listener (optional) ────
	var metricsServer *http.Server
	if cfg.MetricsPort != "" {
		metricsServer = metrics.NewServer(cfg.MetricsPort, m)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
		logger.Info("metrics listening", "addr", metricsServer.Addr)
	}

	// ──── Step 4: Start HTTP Server ────
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.New(chatHandler, m, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.ReadTimeout + cfg.ChatScriptTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ChatScriptTimeout+5*time.Second)
		defer cancel()
		if metricsServer != nil {
			metricsServer.Shutdown(ctx)
		}
		server.Shutdown(ctx)
	}()

	logger.Info("bridge listening",
		"addr", server.Addr,
		"chatscript", client.Addr(),
		"timeout", cfg.ChatScriptTimeout,
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	<-shutdownDone
	return nil
}
