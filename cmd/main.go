package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fathima-sithara/contacts-api/internal/bootstrap"
	"github.com/fathima-sithara/contacts-api/internal/config"
	"github.com/fathima-sithara/contacts-api/internal/routes"
	"github.com/fathima-sithara/contacts-api/internal/server"
	"github.com/fathima-sithara/contacts-api/internal/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appCtx, cleanup, err := bootstrap.Init(cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	app := server.New(cfg, logger)
	routes.Setup(app, appCtx.RouteDeps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		logger.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.App.Env))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	cleanup(shutdownCtx)
	logger.Info("bye")
}
