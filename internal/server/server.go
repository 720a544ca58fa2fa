package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/foodgram/apiserver/config"
	"github.com/foodgram/apiserver/internal/db"
	"github.com/foodgram/apiserver/internal/handlers"
	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/metrics"
	"github.com/foodgram/apiserver/internal/mq"
	"github.com/foodgram/apiserver/internal/services"
	"github.com/foodgram/apiserver/internal/storage"
	"github.com/foodgram/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	mq         *mq.MQ
}

// New constructs a Server with its dependencies wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if err := images.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", images.Bucket(), err)
	}

	broker, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init mq: %w", err)
	}
	var events services.EventPublisher = mq.NopPublisher{}
	if broker != nil {
		events = mq.NewRecipeEvents(broker, cfg.MQ.Channel)
	}

	userRepo := store.NewUserRepository(dbConn)
	ingredientRepo := store.NewIngredientRepository(dbConn)
	recipeRepo := store.NewRecipeRepository(dbConn)
	subscriptionRepo := store.NewSubscriptionRepository(dbConn)

	userService := services.NewUserService(userRepo, images)
	ingredientService := services.NewIngredientService(ingredientRepo)
	recipeService := services.NewRecipeService(recipeRepo, ingredientRepo, images, events, cfg.Recipes)
	favoriteService := services.NewMembershipService(store.NewFavoriteRepository(dbConn), recipeRepo)
	cartService := services.NewMembershipService(store.NewShoppingCartRepository(dbConn), recipeRepo)
	shoppingListService := services.NewShoppingListService(recipeRepo, time.Now)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo, recipeRepo)

	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.TokenTTL)
	userHandler := handlers.NewUserHandler(userService, subscriptionService, cfg.Paging, cfg.PublicURL)
	ingredientHandler := handlers.NewIngredientHandler(ingredientService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, favoriteService, cartService, shoppingListService, cfg.Paging, cfg.PublicURL)
	shortLinkHandler := handlers.NewShortLinkHandler(recipeService, cfg.PublicURL)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.StripSlashes,
		logging.RequestLogger,
		middleware.Recoverer,
		metrics.Middleware,
		middleware.Timeout(60*time.Second),
	)
	if len(cfg.HTTP.CORSAllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.HTTP.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", metrics.Handler())
	router.Route("/s", func(r chi.Router) {
		handlers.ShortLinkRouter(r, shortLinkHandler)
	})
	router.Route("/api", func(r chi.Router) {
		if cfg.HTTP.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow))
		}
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userHandler, authHandler)
		})
		r.Route("/ingredients", func(r chi.Router) {
			handlers.IngredientRouter(r, ingredientHandler)
		})
		r.Route("/recipes", func(r chi.Router) {
			handlers.RecipeRouter(r, recipeHandler, authHandler)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		db:         dbConn,
		mq:         broker,
	}, nil
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and then releases the broker and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if closeErr := s.mq.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("failed to close mq")
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
