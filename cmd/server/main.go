package main

import (
	"log/slog"
	"os"

	"go-wanandroid/internal/app"
	"go-wanandroid/internal/config"
	"go-wanandroid/internal/logger"
)

func main() {
	logger.Setup(os.Stdout, "info")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(os.Stdout, cfg.LogLevel)

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
