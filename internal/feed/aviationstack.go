package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/asturlabs/ovdlive/internal/config"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

// RawScheduleItem is one flight record lifted out of the schedule
// provider's nested payload. Fields are raw provider values; canonical
// interpretation (direction, display time, status enum) happens in the
// normalizer.
type RawScheduleItem struct {
	FlightIATA   string
	FlightICAO   string
	AirlineName  string
	FlightStatus string

	DepAirportIATA string
	DepAirportName string
	DepScheduled   string
	DepTerminal    string
	DepGate        string

	ArrAirportIATA string
	ArrAirportName string
	ArrScheduled   string
	ArrTerminal    string
	ArrGate        string

	Registration string
}

// RawSchedulePayload is the combined arrivals + departures snapshot
type RawSchedulePayload struct {
	FetchedAt time.Time
	Flights   []RawScheduleItem
}

// ScheduleClient fetches the scheduled-flights registry from the
// commercial provider (AviationStack) for the configured airport.
type ScheduleClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	airport    string
	logger     *logger.Logger
}

// NewScheduleClient creates a new schedule feed client
func NewScheduleClient(cfg config.ScheduleConfig, station config.StationConfig, log *logger.Logger) *ScheduleClient {
	return &ScheduleClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		airport: station.AirportIATA,
		logger:  log.Named("schedule-client"),
	}
}

// FetchSchedule fetches arrivals and departures for the station and
// returns them as one snapshot. Any failure on either leg is logged and
// surfaced as nil, per the null-on-failure contract; the engine keeps the
// previous snapshot in that case.
func (c *ScheduleClient) FetchSchedule(ctx context.Context) *RawSchedulePayload {
	arrivals, err := c.fetchLeg(ctx, "arr_iata")
	if err != nil {
		c.logger.Warn("Schedule feed unavailable (arrivals)", logger.Error(err))
		return nil
	}

	departures, err := c.fetchLeg(ctx, "dep_iata")
	if err != nil {
		c.logger.Warn("Schedule feed unavailable (departures)", logger.Error(err))
		return nil
	}

	payload := &RawSchedulePayload{
		FetchedAt: time.Now().UTC(),
		Flights:   append(arrivals, departures...),
	}

	c.logger.Debug("Fetched schedule snapshot",
		logger.Int("arrivals", len(arrivals)),
		logger.Int("departures", len(departures)))
	return payload
}

// fetchLeg queries one direction of the schedule (arr_iata or dep_iata)
func (c *ScheduleClient) fetchLeg(ctx context.Context, param string) ([]RawScheduleItem, error) {
	url := fmt.Sprintf("%s/flights?access_key=%s&%s=%s", c.baseURL, c.apiKey, param, c.airport)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
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

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return nil, fmt.Errorf("response has no data field")
	}

	items := make([]RawScheduleItem, 0, len(data.Array()))
	data.ForEach(func(_, f gjson.Result) bool {
		items = append(items, RawScheduleItem{
			FlightIATA:   f.Get("flight.iata").String(),
			FlightICAO:   f.Get("flight.icao").String(),
			AirlineName:  f.Get("airline.name").String(),
			FlightStatus: f.Get("flight_status").String(),

			DepAirportIATA: f.Get("departure.iata").String(),
			DepAirportName: f.Get("departure.airport").String(),
			DepScheduled:   f.Get("departure.scheduled").String(),
			DepTerminal:    f.Get("departure.terminal").String(),
			DepGate:        f.Get("departure.gate").String(),

			ArrAirportIATA: f.Get("arrival.iata").String(),
			ArrAirportName: f.Get("arrival.airport").String(),
			ArrScheduled:   f.Get("arrival.scheduled").String(),
			ArrTerminal:    f.Get("arrival.terminal").String(),
			ArrGate:        f.Get("arrival.gate").String(),

			Registration: firstNonEmpty(
				f.Get("aircraft.registration").String(),
				f.Get("aircraft.iata").String(),
			),
		})
		return true
	})

	return items, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
