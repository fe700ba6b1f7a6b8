package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/wso2/xs2a-sca-engine/internal/system/config"
	"github.com/wso2/xs2a-sca-engine/internal/system/database"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// .env is optional, missing files are ignored
	_ = godotenv.Load()

	logger := log.GetLogger()
	logger.Info("Starting XS2A SCA engine...",
		log.String("version", version),
		log.String("build_date", buildDate))

	// Priority: CONFIG_PATH env var > repository/conf/deployment.yaml > cmd/server/repository/conf/deployment.yaml
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", log.Error(err))
	}
	log.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(cfg.Server.Mode)
	}

	db, err := database.Initialize(&cfg.Database.Xs2a)
	if err != nil {
		logger.Fatal("Failed to initialize database", log.Error(err))
	}
	provider.InitDBProvider(db)

	handler, err := registerServices(cfg)
	if err != nil {
		logger.Fatal("Failed to register services", log.Error(err))
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Hostname, cfg.Server.Port)
	server := &http.Server{
		Addr:           serverAddr,
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("Starting HTTP server...", log.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", log.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", log.Error(err))
	}
	unregisterServices()
	if err := provider.GetDBProviderCloser().Close(); err != nil {
		logger.Error("Failed to close database", log.Error(err))
	}

	logger.Info("Server exited gracefully")
}
