package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nexconsult/cep-processor/internal/api"
	"github.com/nexconsult/cep-processor/internal/config"
	"github.com/nexconsult/cep-processor/internal/logger"
	"github.com/nexconsult/cep-processor/internal/services"
	"github.com/sirupsen/logrus"

	// Import docs for Swagger
	_ "github.com/nexconsult/cep-processor/docs"
)

// @title CEP Batch Processor API
// @version 1.0
// @description Batch lookup of Brazilian postal codes with persistence to SQLite, JSON and XML

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
// @schemes http https

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting CEP processor API...")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	serviceContainer, err := services.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize services: %v", err)
	}
	defer serviceContainer.Close()

	server := api.NewServer(cfg, logger, serviceContainer)
	defer server.Close()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":            cfg.Server.Port,
			"environment":     cfg.Server.Environment,
			"max_concurrency": cfg.Lookup.MaxConcurrency,
			"input":           cfg.Output.InputCSV,
		}).Info("Server starting...")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
