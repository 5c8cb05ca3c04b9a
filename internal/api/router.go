package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rrens/lingocode/internal/api/handler"
	customMiddleware "github.com/Rrens/lingocode/internal/api/middleware"
	"github.com/Rrens/lingocode/internal/api/response"
	"github.com/Rrens/lingocode/internal/config"
	"github.com/Rrens/lingocode/internal/service"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Auth       *service.AuthService
	Profiles   *service.ProfileService
	Generation *service.GenerationService
	// Limiter guards generation endpoints; nil disables rate limiting
	Limiter customMiddleware.Limiter
	// Ready lists the dependencies checked by /ready
	Ready     map[string]handler.Pinger
	Providers []string
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(customMiddleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	authHandler := handler.NewAuthHandler(deps.Auth, deps.Profiles)
	profileHandler := handler.NewProfileHandler(deps.Profiles)
	generationHandler := handler.NewGenerationHandler(deps.Generation)

	authMiddleware := customMiddleware.NewAuthMiddleware(deps.Auth)

	// Public routes
	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(deps.Ready))

	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)
	r.Post("/refresh-token", authHandler.Refresh)
	r.Post("/logout", authHandler.Logout)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/me", authHandler.Me)
		r.Delete("/me", authHandler.DeleteMe)

		r.Get("/profile", profileHandler.Get)
		r.Put("/profile", profileHandler.Update)

		r.Get("/history", generationHandler.History)
		r.Get("/llm-providers", handler.ListLLMProviders(cfg.Generation, deps.Providers))

		r.Group(func(r chi.Router) {
			if deps.Limiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.Limiter).Limit)
			}

			r.Post("/process", generationHandler.Process)
			r.Post("/generate_app_plan", generationHandler.AppPlan)
			r.Post("/generate-code-from-plan", generationHandler.CodeFromPlan)
		})
	})

	return r
}
