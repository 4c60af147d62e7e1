package rest

import (
	"net/http"

	"carddeps/infrastructure/di"
	"carddeps/interfaces/http/rest/handlers"
	"carddeps/interfaces/http/rest/middleware"
	"carddeps/pkg/common"
	apperrors "carddeps/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	container *di.Container
	errors    *apperrors.ErrorHandler
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(container *di.Container) *Router {
	return &Router{
		container: container,
		errors:    apperrors.NewErrorHandler(container.Logger, container.Config.IsDevelopment()),
		logger:    container.Logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	c := rt.container
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if c.Config.EnableMetrics {
		router.Use(middleware.Metrics(c.Metrics))
	}

	if c.Config.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://trello.com", "https://*.trello.com", "http://localhost:*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if c.Config.EnableMetrics {
		router.Method(http.MethodGet, "/metrics", c.Metrics.Handler())
	}

	edgeHandler := handlers.NewEdgeHandler(c.Graph, c.Reconciler, c.Candidates, c.Metrics, rt.errors, rt.logger)
	itemHandler := handlers.NewItemHandler(c.Items, c.Summaries, rt.errors, rt.logger)
	sessionHandler := handlers.NewSessionHandler(c.Sessions, c.Candidates, c.Metrics, rt.errors, rt.logger)
	settingsHandler := handlers.NewSettingsHandler(c.Settings, rt.errors, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(c.Auth, rt.errors, rt.logger))

		r.Route("/items/{itemID}", func(r chi.Router) {
			r.Put("/", itemHandler.PutItem)
			r.Get("/summary", itemHandler.GetSummary)

			r.Get("/edges", edgeHandler.GetEdges)
			r.Post("/dependencies", edgeHandler.AddDependency)
			r.Delete("/dependencies/{targetID}", edgeHandler.RemoveDependency)
			r.Post("/reconcile", edgeHandler.Reconcile)

			r.Post("/sessions", sessionHandler.OpenSession)
		})

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", sessionHandler.GetSession)
			r.Post("/toggle", sessionHandler.Toggle)
			r.Post("/commit", sessionHandler.Commit)
			r.Delete("/", sessionHandler.CloseSession)
		})

		r.Route("/boards/{boardID}", func(r chi.Router) {
			r.Get("/settings", settingsHandler.GetSettings)
			r.Put("/settings", settingsHandler.PutSettings)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck pings the relation store
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if err := rt.container.Ready(req.Context()); err != nil {
		rt.logger.Warn("Readiness check failed", zap.Error(err))
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
