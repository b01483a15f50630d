package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/asturlabs/ovdlive/internal/config"
	"github.com/asturlabs/ovdlive/internal/track"
	"github.com/asturlabs/ovdlive/internal/weather"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

// Handler serves the read API and the renderer selection callback
type Handler struct {
	engine         *track.Engine
	weatherService *weather.Service
	config         *config.Config
	logger         *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(engine *track.Engine, weatherService *weather.Service, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		engine:         engine,
		weatherService: weatherService,
		config:         cfg,
		logger:         log.Named("api-handler"),
	}
}

// AircraftResponse is the envelope for the tracked-aircraft view
type AircraftResponse struct {
	Timestamp time.Time               `json:"timestamp"`
	Count     int                     `json:"count"`
	Aircraft  []track.TrackedAircraft `json:"aircraft"`
}

// ScheduleResponse is the envelope for the flight board
type ScheduleResponse struct {
	Timestamp time.Time           `json:"timestamp"`
	Count     int                 `json:"count"`
	Flights   []track.BoardFlight `json:"flights"`
}

// TrailResponse is the envelope for a single aircraft's trail
type TrailResponse struct {
	Identity string             `json:"identity"`
	Points   []track.TrailPoint `json:"points"`
}

// SelectionRequest is the renderer's hover/selection callback payload
type SelectionRequest struct {
	Identity string `json:"identity"`
}

// GetAircraft returns the current tracked-aircraft view model
func (h *Handler) GetAircraft(w http.ResponseWriter, r *http.Request) {
	view := h.engine.GetView()
	h.respondJSON(w, http.StatusOK, AircraftResponse{
		Timestamp: time.Now().UTC(),
		Count:     len(view),
		Aircraft:  view,
	})
}

// GetAircraftTrail returns the stored trail for one identity
func (h *Handler) GetAircraftTrail(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "id")
	points := h.engine.Trail(identity)
	if len(points) == 0 {
		h.respondError(w, http.StatusNotFound, "no trail for identity")
		return
	}
	h.respondJSON(w, http.StatusOK, TrailResponse{
		Identity: identity,
		Points:   points,
	})
}

// GetSchedule returns the flight board, optionally filtered by direction
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	var direction track.Direction
	switch d := r.URL.Query().Get("direction"); d {
	case "":
		direction = ""
	case string(track.DirectionArrival):
		direction = track.DirectionArrival
	case string(track.DirectionDeparture):
		direction = track.DirectionDeparture
	default:
		h.respondError(w, http.StatusBadRequest, "direction must be arrival or departure")
		return
	}

	flights := h.engine.GetSchedule(direction)
	h.respondJSON(w, http.StatusOK, ScheduleResponse{
		Timestamp: time.Now().UTC(),
		Count:     len(flights),
		Flights:   flights,
	})
}

// PostSelection records the renderer's selected identity; an empty
// identity clears the selection
func (h *Handler) PostSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.engine.Select(req.Identity)
	h.respondJSON(w, http.StatusOK, map[string]string{"selected": req.Identity})
}

// GetWeather returns the cached station weather snapshot
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	snapshot := h.weatherService.GetWeather()
	if snapshot == nil {
		h.respondError(w, http.StatusServiceUnavailable, "weather data not available yet")
		return
	}
	h.respondJSON(w, http.StatusOK, snapshot)
}

// GetStation returns the configured station
func (h *Handler) GetStation(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"airport_iata": h.config.Station.AirportIATA,
		"airport_name": h.config.Station.AirportName,
		"latitude":     h.config.Station.Latitude,
		"longitude":    h.config.Station.Longitude,
	})
}

// GetHealth reports liveness and last successful tick times
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	lastLive, lastSchedule := h.engine.Status()
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"last_live_tick":     lastLive,
		"last_schedule_tick": lastSchedule,
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}
