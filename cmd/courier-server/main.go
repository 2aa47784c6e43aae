package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/rivon0507/courier-back/internal/app"
	"github.com/rivon0507/courier-back/internal/config"
	"github.com/rivon0507/courier-back/internal/utils/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	application, err := app.New(context.Background(), cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := application.Run(); err != nil {
		zapLogger.Fatal("server terminated", zap.Error(err))
	}
}
