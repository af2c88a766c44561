package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/internal/api"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/internal/parts"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/internal/users"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/internal/userview"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/config"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/logger"

	_ "github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/docs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           Users API
// @version         1.0
// @description     User registry that composes user records with parts from the Parts service.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
func main() {
	cfg := config.Load()

	zl, err := logger.New("api-service", cfg.LogLevel)
	if err != nil {
		log.Fatalf("[API] Failed to build logger: %v", err)
	}
	defer zl.Sync()

	gin.SetMode(gin.ReleaseMode)

	registry := users.NewRegistry()
	partsClient := parts.NewClient(cfg.PartsServiceURL, cfg.PartsTimeout, zl)
	views := userview.NewService(registry, partsClient)

	handler := api.NewUserHandler(registry, views, zl)
	router := api.NewRouter(handler, zl)

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zl.Info("listening",
			zap.String("port", cfg.APIPort),
			zap.String("parts_service_url", cfg.PartsServiceURL),
			zap.Duration("parts_timeout", cfg.PartsTimeout))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
		return
	}
	zl.Info("server exited gracefully")
}
