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

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/restaurantfinder/backend/internal/adapters/cache"
	"github.com/zatekoja/restaurantfinder/backend/internal/adapters/providers/places"
	"github.com/zatekoja/restaurantfinder/backend/internal/api/handlers"
	"github.com/zatekoja/restaurantfinder/backend/internal/api/routes"
	"github.com/zatekoja/restaurantfinder/backend/internal/application/services"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/restaurantfinder/backend/internal/infrastructure/observability"
	"github.com/zatekoja/restaurantfinder/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Response caches: Redis when configured and reachable, otherwise in-memory
	var redisClient *redis.Client
	if cfg.Cache.Backend == "redis" {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable; falling back to in-memory caches")
		} else {
			defer redisClient.Close()
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("redis client initialized")
		}
	}
	detailsCache, err := newResponseCache[*entities.Place](redisClient, cfg, "details")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create details cache")
	}
	analysisCache, err := newResponseCache[*entities.AnalysisResult](redisClient, cfg, "analysis")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create analysis cache")
	}

	usage := services.NewUsageTracker(time.Now)

	placeLookup := places.NewProvider(&cfg.Maps, cfg.App.IsDevelopment())

	generator, err := gemini.NewClient(ctx, &cfg.Gemini, cfg.App.APITimeout(), usage)
	if err != nil {
		log.Warn().Err(err).Msg("gemini client unavailable; AI analysis disabled")
	}
	defer generator.Close()

	searchService := services.NewSearchService(placeLookup, usage, detailsCache, cfg.App.DefaultRadius)
	searchService.SetMetrics(metrics)
	analysisService := services.NewAnalysisService(generator, searchService, analysisCache)
	analysisService.SetMetrics(metrics)

	center := entities.LatLng{Lat: cfg.App.DefaultLat, Lng: cfg.App.DefaultLng}
	appInfo := handlers.AppInfo{
		Title:         cfg.App.Title,
		Environment:   cfg.App.Env,
		DefaultCenter: center,
		DefaultRadius: searchService.DefaultRadius(),
		APITimeoutMs:  cfg.App.APITimeoutMs,
		MapsEnabled:   placeLookup != nil,
	}

	router := routes.NewRouter(
		handlers.NewRestaurantHandler(searchService, center),
		handlers.NewAnalysisHandler(analysisService),
		handlers.NewSystemHandler(appInfo, searchService, analysisService, usage),
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server. WriteTimeout leaves room for streamed analyses.
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.App.APITimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", serverAddr).
			Bool("maps_enabled", appInfo.MapsEnabled).
			Bool("gemini_ready", generator.Ready()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}

func newResponseCache[V any](redisClient *redis.Client, cfg *config.Config, kind string) (providers.ResponseCache[V], error) {
	if redisClient != nil {
		return cache.NewRedisStore[V](redisClient, cfg.Redis.KeyPrefix, kind), nil
	}
	store, err := cache.NewLRUStore[V](cfg.Cache.Capacity)
	if err != nil {
		return nil, err
	}
	return store, nil
}
