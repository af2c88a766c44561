package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/internal/partevents"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/internal/worker"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/config"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/dedupe"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/logger"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/rabbitmq"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New("part-consumer", cfg.LogLevel)
	if err != nil {
		log.Fatalf("[part-consumer] Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := worker.Worker{
		Name:    "part-consumer",
		Binding: partevents.Binding,
		NewHandler: func(store dedupe.Store) rabbitmq.Handler {
			return partevents.NewConsumer(zl, store).HandleEvent
		},
	}

	if err := worker.Run(ctx, cfg, w, zl); err != nil {
		zl.Fatal("consumer failed", zap.Error(err))
	}
	zl.Info("shutdown complete")
}
