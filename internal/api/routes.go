package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asturlabs/ovdlive/internal/config"
	"github.com/asturlabs/ovdlive/internal/track"
	"github.com/asturlabs/ovdlive/internal/weather"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	wsHandler  *WSHandler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(engine *track.Engine, weatherService *weather.Service, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(engine, weatherService, cfg, log),
		wsHandler:  NewWSHandler(engine, cfg.Server.CORSAllowedOrigins, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Tracked aircraft view model
		router.Get("/aircraft", r.handler.GetAircraft)
		router.Get("/aircraft/{id}/trail", r.handler.GetAircraftTrail)

		// Flight board
		router.Get("/schedule", r.handler.GetSchedule)

		// Renderer selection callback
		router.Post("/selection", r.handler.PostSelection)

		// Weather data
		router.Get("/wx", r.handler.GetWeather)

		// Station and liveness
		router.Get("/station", r.handler.GetStation)
		router.Get("/health", r.handler.GetHealth)

		// WebSocket view stream
		router.Get("/ws", r.wsHandler.ServeHTTP)
	})

	return router
}
