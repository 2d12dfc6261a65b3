package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vendora/vendora-search/internal/config"
	"github.com/vendora/vendora-search/internal/domain/catalog"
	"github.com/vendora/vendora-search/internal/domain/location"
	"github.com/vendora/vendora-search/internal/domain/search"
	"github.com/vendora/vendora-search/internal/domain/session"
	"github.com/vendora/vendora-search/internal/middleware"
	"github.com/vendora/vendora-search/internal/pkg/database"
	"github.com/vendora/vendora-search/internal/pkg/geocode"
	"github.com/vendora/vendora-search/internal/pkg/ipgeo"
	"github.com/vendora/vendora-search/internal/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Vendora search gateway")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	// ---------- Location resolution ----------
	providers := ipgeo.DefaultProviders(cfg.IPGeoProviders, cfg.IPGeoTimeout)
	if len(providers) == 0 {
		log.Warn().Strs("configured", cfg.IPGeoProviders).Msg("No usable IP geolocation providers, passive detection disabled")
	}
	chain := ipgeo.NewChain(providers)

	geocoder := geocode.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderAPIKey, cfg.GeocoderTimeout, cfg.GeocodeCacheTTL)
	resolver := location.NewResolver(chain, geocoder)
	prefStore := location.NewStore(redis, cfg.LocationPrefTTL)

	// ---------- Preview counts ----------
	counter := search.NewCountClient(cfg.BackendBaseURL, cfg.BackendTimeout)

	// ---------- Sessions ----------
	sessionManager := session.NewManager(cfg.SessionTTL)
	sessionService := session.NewService(sessionManager, resolver, prefStore, counter, cfg.DebounceWindow)
	sessionHandler := session.NewHandler(sessionService)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sessionManager.Start(sweepCtx, 10*time.Minute)

	// ---------- Catalog ----------
	catalogRepo := catalog.NewRepository(db)
	catalogHandler := catalog.NewHandler(catalogRepo)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/sessions", sessionHandler.Routes())
		r.Mount("/catalog", catalogHandler.Routes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
