// cmd/server/main.go
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
	"github.com/sirupsen/logrus"

	"github.com/javajoker/collab-backend/internal/config"
	"github.com/javajoker/collab-backend/internal/database"
	"github.com/javajoker/collab-backend/internal/i18n"
	"github.com/javajoker/collab-backend/internal/repository"
	"github.com/javajoker/collab-backend/internal/router"
	"github.com/javajoker/collab-backend/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to load configuration")
	}
	utils.ConfigureLogger(cfg.LogLevel, os.Stdout)

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize i18n")
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to initialize storage")
	}
	defer closeRepo()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(repo, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r.Engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		utils.LogInfo("Starting server", logrus.Fields{
			"addr":        srv.Addr,
			"environment": cfg.Environment,
			"db_driver":   cfg.Database.Driver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.LogInfo("Shutting down server", nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.LogError(err, "Server forced to shutdown", nil)
	}
	r.Close()

	utils.LogInfo("Server exited", nil)
}

func openRepository(cfg *config.Config) (repository.Repository, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		utils.Logger.Warn("Using in-memory storage; data is lost on restart")
		return repository.NewMemory().Repository(), func() {}, nil
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return nil, nil, err
	}

	return repository.NewGorm(db), func() { database.Close(db) }, nil
}
