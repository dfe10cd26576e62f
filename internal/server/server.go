// Package server sets up the HTTP server, router, and all route definitions.
//
// It is the composition root: New opens the database and builds
//
//	sqlite.DB → services → handlers → chi routes
//
// so every other package receives its dependencies instead of creating them.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/handler"
	"github.com/sakif/foodgram/internal/middleware"
	"github.com/sakif/foodgram/internal/model"
	sqliteRepo "github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
	"github.com/sakif/foodgram/internal/validation"
)

// Server represents the HTTP server and all its dependencies. It owns the
// database connection and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

// New opens the database named by cfg.DBPath and wires every route.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}
	s.setupRoutes()

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES (a trailing slash is optional everywhere):
//
//	GET            /api/users/                    optional auth
//	GET            /api/users/me/                 auth
//	GET            /api/users/subscriptions/      auth
//	GET            /api/users/{id}/               optional auth
//	POST, DELETE   /api/users/{id}/subscribe/     auth
//	GET            /api/tags/, /api/tags/{id}/    open
//	POST           /api/tags/                     auth
//	GET            /api/ingredients/[{id}/]       open
//	POST           /api/ingredients/              auth
//	GET            /api/recipes/[{id}/]           optional auth
//	POST           /api/recipes/                  auth
//	PUT, PATCH, DELETE /api/recipes/{id}/         auth (author or admin)
//	POST, DELETE   /api/recipes/{id}/favorite/    auth
//	POST, DELETE   /api/recipes/{id}/shopping_cart/ auth
//	GET            /api/recipes/download_shopping_cart/ auth
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID, 2. RealIP, 3. Logger (sees the id), 4. Recoverer,
// 5. StripSlashes so "/api/recipes/" and "/api/recipes" match the same route.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.StripSlashes)

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	// DEPENDENCY CHAIN:
	//   s.db implements every repository interface
	//   services receive the interfaces, handlers receive the services
	validate := validation.New()

	userService := service.NewUserService(s.db, s.db, s.db, s.logger)
	tagService := service.NewTagService(s.db, validate, s.logger)
	ingredientService := service.NewIngredientService(s.db, s.logger)
	recipeService := service.NewRecipeService(s.db, s.db, s.db, s.db, s.db, s.db, s.logger)
	collectionService := service.NewCollectionService(s.db, s.db, s.logger)

	users := handler.NewUserHandler(userService, s.logger)
	tags := handler.NewTagHandler(tagService, validate, s.logger)
	ingredients := handler.NewIngredientHandler(ingredientService, validate, s.logger)
	recipes := handler.NewRecipeHandler(recipeService, collectionService, validate, s.logger, s.config.ShoppingListFileName)

	requireAuth := auth.RequireAuth(s.tokens, s.db)
	optionalAuth := auth.OptionalAuth(s.tokens, s.db)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(optionalAuth).Get("/", users.HandleList)
			r.With(optionalAuth).Get("/{id}", users.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", users.HandleMe)
				r.Get("/subscriptions", users.HandleSubscriptions)
				r.Post("/{id}/subscribe", users.HandleSubscribe)
				r.Delete("/{id}/subscribe", users.HandleUnsubscribe)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", tags.HandleList)
			r.Get("/{id}", tags.HandleGet)
			r.With(requireAuth).Post("/", tags.HandleCreate)
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", ingredients.HandleList)
			r.Get("/{id}", ingredients.HandleGet)
			r.With(requireAuth).Post("/", ingredients.HandleCreate)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.With(optionalAuth).Get("/", recipes.HandleList)
			r.With(optionalAuth).Get("/{id}", recipes.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				// Static segment; chi matches it before {id}.
				r.Get("/download_shopping_cart", recipes.HandleDownloadShoppingCart)

				r.Post("/", recipes.HandleCreate)
				r.Put("/{id}", recipes.HandleReplace)
				r.Patch("/{id}", recipes.HandlePatch)
				r.Delete("/{id}", recipes.HandleDelete)

				r.Post("/{id}/favorite", recipes.HandleAdd(model.Favorites))
				r.Delete("/{id}/favorite", recipes.HandleRemove(model.Favorites))
				r.Post("/{id}/shopping_cart", recipes.HandleAdd(model.ShoppingCart))
				r.Delete("/{id}/shopping_cart", recipes.HandleRemove(model.ShoppingCart))
			})
		})
	})
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, let in-flight requests finish (30s), and
// close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d/api/", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
