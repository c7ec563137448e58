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
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"github.com/stwalsh4118/schoolfinder/internal/config"
	"github.com/stwalsh4118/schoolfinder/internal/database"
	"github.com/stwalsh4118/schoolfinder/internal/handlers"
	"github.com/stwalsh4118/schoolfinder/internal/logger"
	"github.com/stwalsh4118/schoolfinder/internal/middleware"
	"github.com/stwalsh4118/schoolfinder/internal/repository"
	"github.com/stwalsh4118/schoolfinder/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.NewWithOptions(logger.Options{Env: cfg.Server.Env, Level: cfg.Log.Level})
	log.Info("Starting School Finder API", map[string]interface{}{
		"version":        handlers.APIVersion,
		"environment":    cfg.Server.Env,
		"port":           cfg.Server.Port,
		"dataset_source": cfg.Dataset.Source,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The database is only needed when schools are served from PostgreSQL
	var (
		db     *database.Database
		pinger handlers.Pinger
	)
	if cfg.Dataset.Source == config.SourcePostgres {
		db, err = database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"port": cfg.Database.Port,
				"name": cfg.Database.Name,
			})
		}
		defer db.Close()
		pinger = db

		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
	}

	// Initialize source and service layers
	source, err := repository.NewSource(cfg.Dataset, db)
	if err != nil {
		log.Fatal("Failed to configure dataset source", err, nil)
	}
	schoolService := services.NewSchoolService(source, log.WithComponent("school_service"))

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		log.Fatal("Failed to register request validators", err, nil)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	healthHandler := handlers.NewHealthHandler(schoolService, pinger, cfg.Server.Env)
	schoolHandler := handlers.NewSchoolHandler(schoolService, cfg.Search.DisplayCap)
	handlers.RegisterRoutes(router, healthHandler, schoolHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	// Fetch the dataset once; until it lands the data routes answer 503
	g.Go(func() error {
		loadCtx, cancel := context.WithTimeout(gctx, cfg.Dataset.Timeout)
		defer cancel()
		if err := schoolService.Load(loadCtx); err != nil {
			log.Error("School data unavailable, serving 503 on data routes", err, nil)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", err, map[string]interface{}{
				"timeout": shutdownTimeout.String(),
			})
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", err, nil)
		stop()
		if db != nil {
			db.Close()
		}
		os.Exit(1)
	}

	log.Info("Server exited", nil)
}
