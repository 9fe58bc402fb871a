package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jrolls0/transplant-wizard-sub000/config"
	"github.com/jrolls0/transplant-wizard-sub000/handler"
	"github.com/jrolls0/transplant-wizard-sub000/middleware"
	"github.com/jrolls0/transplant-wizard-sub000/pkg/logger"
	"github.com/jrolls0/transplant-wizard-sub000/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// The query catalog is fixed configuration; a bad catalog is a build
	// defect, caught here before any event is accepted.
	catalog := service.LabCatalog()
	if err := catalog.Validate(); err != nil {
		slog.Error("invalid query catalog", "error", err)
		os.Exit(1)
	}

	// Build collaborators once; every handler gets them by construction.
	store, err := service.NewMinioStore(&cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize storage client", "error", err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	pool, err := service.NewPool(startupCtx, &cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	stager := service.NewStager(pool)
	if err := stager.EnsureSchema(startupCtx); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	classifier := service.NewClassifier(store)
	extractor := service.NewExtractorService(&cfg.Extractor, store, catalog)

	eventsHandler := handler.NewEventsHandler(classifier, extractor, stager)
	recordsHandler := handler.NewRecordsHandler(stager)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")

	// The storage backend posts bucket notifications here.
	api.POST("/events", middleware.RateLimit(300, time.Minute), eventsHandler.HandleEvents)

	// Review API, consumed by clinical-review tooling.
	review := api.Group("/")
	review.Use(middleware.Auth(&cfg.Auth))
	{
		review.GET("/patients/:patientId/staged-records", recordsHandler.ListByPatient)
		review.GET("/staged-records/:id", recordsHandler.Get)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
