package weather

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/asturlabs/ovdlive/internal/config"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

const currentFields = "temperature_2m,relative_humidity_2m,is_day,weather_code," +
	"wind_speed_10m,wind_direction_10m,visibility"

// Service periodically fetches station weather from Open-Meteo and serves
// the cached snapshot. A failed refresh keeps the previous snapshot.
type Service struct {
	httpClient *http.Client
	baseURL    string
	lat        float64
	lon        float64
	refresh    time.Duration
	cache      *Cache
	logger     *logger.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates a weather service for the station coordinates
func NewService(cfg config.WeatherConfig, station config.StationConfig, log *logger.Logger) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		baseURL: cfg.APIBaseURL,
		lat:     station.Latitude,
		lon:     station.Longitude,
		refresh: time.Duration(cfg.RefreshIntervalMinutes) * time.Minute,
		cache:   NewCache(),
		logger:  log.Named("weather"),
	}
}

// Start launches the refresh loop: one immediate fetch, then the
// configured cadence. Non-blocking.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("weather service already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop halts the refresh loop; safe to call multiple times
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

// GetWeather returns the cached snapshot, or nil before the first
// successful fetch
func (s *Service) GetWeather() *Snapshot {
	return s.cache.Get()
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()

	if ctx.Err() == nil {
		s.refreshOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.refreshOnce(ctx)
		}
	}
}

func (s *Service) refreshOnce(ctx context.Context) {
	snapshot, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("Weather refresh failed, keeping cached snapshot", logger.Error(err))
		return
	}

	// Cache entries outlive one refresh so a single failure never blanks
	// the widget
	s.cache.Set(snapshot, 2*s.refresh)
	s.logger.Debug("Weather snapshot refreshed",
		logger.Int("temperature_c", snapshot.TemperatureC),
		logger.Bool("ifr", snapshot.IFR))
}

func (s *Service) fetch(ctx context.Context) (*Snapshot, error) {
	url := fmt.Sprintf("%s/forecast?latitude=%.4f&longitude=%.4f&current=%s&timezone=auto",
		s.baseURL, s.lat, s.lon, currentFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	current := gjson.GetBytes(body, "current")
	if !current.Exists() {
		return nil, fmt.Errorf("response has no current conditions")
	}

	code := int(current.Get("weather_code").Int())
	visibility := current.Get("visibility").Float()

	return &Snapshot{
		TemperatureC:     int(math.Round(current.Get("temperature_2m").Float())),
		Condition:        ConditionForCode(code),
		WMOCode:          code,
		WindSpeedKmh:     int(math.Round(current.Get("wind_speed_10m").Float())),
		WindDirectionDeg: int(current.Get("wind_direction_10m").Int()),
		HumidityPct:      int(current.Get("relative_humidity_2m").Int()),
		VisibilityM:      visibility,
		IsDay:            current.Get("is_day").Int() == 1,
		IFR:              IsIFR(visibility, code),
		LastUpdated:      time.Now().UTC(),
	}, nil
}
