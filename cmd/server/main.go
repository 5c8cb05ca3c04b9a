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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/lingocode/internal/api"
	"github.com/Rrens/lingocode/internal/api/handler"
	"github.com/Rrens/lingocode/internal/api/middleware"
	"github.com/Rrens/lingocode/internal/config"
	"github.com/Rrens/lingocode/internal/generator"
	"github.com/Rrens/lingocode/internal/logging"
	"github.com/Rrens/lingocode/internal/repository"
	"github.com/Rrens/lingocode/internal/repository/redis"
	"github.com/Rrens/lingocode/internal/security"
	"github.com/Rrens/lingocode/internal/service"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logging.Setup(cfg.Logging, cfg.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("generation", cfg.Generation.Mode).
		Msg("Starting lingocode API server")

	store, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	ready := map[string]handler.Pinger{"database": store}

	var (
		limiter      middleware.Limiter
		profileCache service.ProfileCache
	)
	if !cfg.Redis.Enabled {
		local := middleware.NewLocalLimiter(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
		go local.Run(ctx, time.Minute, middleware.LocalLimiterIdleTTL)
		limiter = local
	} else {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		limiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
		profileCache = redis.NewProfileCache(redisClient)
		ready["redis"] = redisClient
	}

	providers := generator.NewProviderRouter(cfg.LLM)
	gen, err := generator.New(cfg.Generation, providers)
	if err != nil {
		return err
	}

	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
		security.WithIssuer(cfg.Auth.Issuer),
	)

	authService, err := service.NewAuthService(store.Users, store.RefreshTokens, jwtManager)
	if err != nil {
		return err
	}

	if cfg.Auth.CleanupInterval > 0 {
		go authService.RunCleanup(ctx, cfg.Auth.CleanupInterval)
	}

	router := api.NewRouter(cfg, api.Dependencies{
		Auth:       authService,
		Profiles:   service.NewProfileService(store.Profiles, profileCache),
		Generation: service.NewGenerationService(gen, store.History),
		Limiter:    limiter,
		Ready:      ready,
		Providers:  providers.ListProviders(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}
