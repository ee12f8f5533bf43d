package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movie-discovery-catalog-service/docs"
	"movie-discovery-catalog-service/internal/catalog"
	"movie-discovery-catalog-service/internal/config"
	"movie-discovery-catalog-service/internal/database"
	"movie-discovery-catalog-service/internal/handler"
	"movie-discovery-catalog-service/internal/middleware"
	"movie-discovery-catalog-service/internal/repository"
	"movie-discovery-catalog-service/internal/service"
	"movie-discovery-catalog-service/internal/tmdb"
	"movie-discovery-catalog-service/internal/youtube"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Structured logging
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.DB)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Redis (optional)
	rdb := database.NewRedis(ctx, cfg.Redis, 5*time.Second)

	// Catalog and video search transports
	tmdbClient := tmdb.NewClient(cfg.TMDB, rdb)
	var videos catalog.VideoSearcher
	if cfg.YouTube.APIKey != "" {
		videos = youtube.NewClient(cfg.YouTube)
	} else {
		slog.Warn("YOUTUBE_API_KEY not set, playable sources disabled")
	}

	// Initialize layers
	libraryRepo := repository.NewLibraryRepository(db)
	genreRepo := repository.NewGenreRepository(db)

	discoverySvc := service.NewDiscoveryService(
		cfg.Pipeline,
		catalog.NewClient(tmdbClient),
		videos,
		libraryRepo,
		genreRepo,
		rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	)
	defer discoverySvc.Close()
	go discoverySvc.RunJanitor(ctx, cfg.Pipeline.SessionIdleTTL)
	librarySvc := service.NewLibraryService(libraryRepo)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Catalog Service",
		ServerHeader: "Catalog-Service",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("unhandled error", "error", err, "status", code)
			return c.Status(code).JSON(handler.ErrorResponse{Error: err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(middleware.AuthMiddleware())
	app.Use(middleware.NewRateLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindowSeconds).Handler())

	// Swagger docs
	handler.RegisterSwagger(app, docs.OpenAPI)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handler.RegisterRoutes(app, handler.NewDiscoveryHandler(discoverySvc), handler.NewLibraryHandler(librarySvc))

	go func() {
		addr := ":" + cfg.Port
		slog.Info("starting catalog service", "addr", addr)
		if err := app.Listen(addr); err != nil {
			slog.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down catalog service...")

	if err := app.Shutdown(); err != nil {
		slog.Error("error shutting down HTTP server", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("error closing Redis connection", "error", err)
		}
	}

	slog.Info("catalog service shutdown complete")
}
