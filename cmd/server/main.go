package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/dexter-sinister/internal/auth"
	"github.com/freeeve/dexter-sinister/internal/config"
	"github.com/freeeve/dexter-sinister/internal/handler"
	"github.com/freeeve/dexter-sinister/internal/logger"
	"github.com/freeeve/dexter-sinister/internal/middleware"
	"github.com/freeeve/dexter-sinister/internal/repository/postgres"
	redisrepo "github.com/freeeve/dexter-sinister/internal/repository/redis"
	"github.com/freeeve/dexter-sinister/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Color: cfg.DevMode})
	log.Info().Str("port", cfg.Port).Bool("devMode", cfg.DevMode).Int("scriptedStepLimit", cfg.ScriptedStepLimit).Msg("Config loaded")

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis: live game copies and cross-instance event fan-out
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Repos
	userRepo := postgres.NewUserRepo(db)
	gameRepo := postgres.NewGameRepo(db)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	googleOAuth := auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	if !googleOAuth.Configured() && !cfg.DevMode {
		log.Warn().Msg("Google OAuth is not configured and dev login is off; nobody can sign in")
	}

	// WebSocket hub. Commits publish on Redis and every instance's hub
	// relays them to its own subscribers.
	wsHub := handler.NewHub()
	store := service.NewStore(gameRepo, redisClient, service.NewRelayBroadcaster(redisClient), cfg.ScriptedStepLimit)

	// Services
	gameSvc := service.NewGameService(store, gameRepo)
	playSvc := service.NewPlayService(store, gameRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(googleOAuth, jwtMgr, userRepo, cfg.DevMode)
	userHandler := handler.NewUserHandler(userRepo)
	gameHandler := handler.NewGameHandler(gameSvc)
	playHandler := handler.NewPlayHandler(playSvc)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr, gameSvc)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status, code := "ok", http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			status, code = "postgres unavailable", http.StatusServiceUnavailable
		} else if err := redisClient.Ping(ctx); err != nil {
			status, code = "redis unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		w.Write([]byte(`{"status":"` + status + `"}`))
	})

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := handler.APIRoutes(userHandler, gameHandler, playHandler)
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	root := middleware.Chain(mux, middleware.Logger, middleware.Recover, middleware.CORS(cfg.CORSOrigin), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := wsHub.Relay(ctx, redisClient); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Event relay stopped")
		}
	}()

	// Rehydrate live copies and resume scripted seats after a restart.
	if err := playSvc.RecoverActiveGames(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to recover active games (non-fatal)")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
