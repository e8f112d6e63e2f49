package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hugh/go-recipes/internal/activity"
	"github.com/hugh/go-recipes/internal/api/handlers"
	"github.com/hugh/go-recipes/internal/api/middleware"
	"github.com/hugh/go-recipes/internal/auth"
	"github.com/hugh/go-recipes/internal/recipe"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client // optional
	Logger         *slog.Logger
	Users          auth.Authenticator
	Tokens         auth.TokenIssuer
	Recorder       activity.Recorder       // defaults to activity.Discard
	AuthSchemes    []string                // Authorization header schemes, "Token" when empty
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	AllowedOrigins []string                // CORS allowed origins
	TrustProxy     bool                    // take the client address from forwarding headers
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Recorder == nil {
		cfg.Recorder = activity.Discard{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.MethodNotAllowed(handlers.MethodNotAllowed)
	r.NotFound(handlers.NotFound)

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	userHandler := handlers.NewUserHandler(cfg.Users, cfg.Tokens, cfg.Recorder, cfg.Logger)
	tagHandler := handlers.NewAttributeHandler(recipe.NewTagRepository(cfg.DB), "tag", cfg.Recorder, cfg.Logger)
	ingredientHandler := handlers.NewAttributeHandler(recipe.NewIngredientRepository(cfg.DB), "ingredient", cfg.Recorder, cfg.Logger)
	recipeHandler := handlers.NewRecipeHandler(recipe.NewRecipeRepository(cfg.DB), cfg.Recorder, cfg.Logger)
	activityHandler := handlers.NewActivityHandler(cfg.DB, cfg.Logger)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	requireToken := middleware.Auth(cfg.Tokens, cfg.AuthSchemes, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/create", userHandler.Create)
			r.Post("/token", userHandler.Token)

			r.With(requireToken).Route("/me", func(r chi.Router) {
				r.Get("/", userHandler.Me)
				r.Put("/", userHandler.UpdateMe(false))
				r.Patch("/", userHandler.UpdateMe(true))
			})
		})

		r.Route("/recipe", func(r chi.Router) {
			r.Use(requireToken)

			r.Route("/tags", func(r chi.Router) {
				r.Get("/", tagHandler.List)
				r.Post("/", tagHandler.Create)
				r.Get("/{id}", tagHandler.Get)
				r.Put("/{id}", tagHandler.Update(false))
				r.Patch("/{id}", tagHandler.Update(true))
				r.Delete("/{id}", tagHandler.Delete)
			})

			r.Route("/ingredients", func(r chi.Router) {
				r.Get("/", ingredientHandler.List)
				r.Post("/", ingredientHandler.Create)
				r.Get("/{id}", ingredientHandler.Get)
				r.Put("/{id}", ingredientHandler.Update(false))
				r.Patch("/{id}", ingredientHandler.Update(true))
				r.Delete("/{id}", ingredientHandler.Delete)
			})

			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", recipeHandler.List)
				r.Post("/", recipeHandler.Create)
				r.Get("/{id}", recipeHandler.Get)
				r.Put("/{id}", recipeHandler.Update(false))
				r.Patch("/{id}", recipeHandler.Update(true))
				r.Delete("/{id}", recipeHandler.Delete)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireToken, middleware.RequireStaff)
			r.Get("/activity", activityHandler.List)
		})
	})

	return &Router{r}
}

var _ http.Handler = (*Router)(nil)
