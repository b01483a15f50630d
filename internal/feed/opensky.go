package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/asturlabs/ovdlive/internal/config"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

// RawLivePayload mirrors the JSON shape of the aggregator's /states/all
// response. States are positional arrays; decoding into typed records is
// the normalizer's job.
type RawLivePayload struct {
	Time   int64   `json:"time"`
	States [][]any `json:"states"`
}

// LiveClient fetches live position reports from the ADS-B aggregator
// (OpenSky Network) for the configured bounding box.
type LiveClient struct {
	httpClient *http.Client
	baseURL    string
	bbox       config.StationConfig
	logger     *logger.Logger
}

// NewLiveClient creates a new live-position feed client
func NewLiveClient(cfg config.LiveFeedConfig, station config.StationConfig, log *logger.Logger) *LiveClient {
	return &LiveClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		baseURL: cfg.BaseURL,
		bbox:    station,
		logger:  log.Named("opensky-client"),
	}
}

// FetchLivePositions fetches the current state vectors inside the bounding
// box. Any failure (network, timeout, non-2xx, malformed body) is logged
// and surfaced as nil; the core treats nil identically to an empty result.
func (c *LiveClient) FetchLivePositions(ctx context.Context) *RawLivePayload {
	url := fmt.Sprintf("%s/states/all?lamin=%.4f&lomin=%.4f&lamax=%.4f&lomax=%.4f",
		c.baseURL, c.bbox.BBoxSouth, c.bbox.BBoxWest, c.bbox.BBoxNorth, c.bbox.BBoxEast)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("Failed to create request", logger.Error(err), logger.String("url", url))
		return nil
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Fetching live positions", logger.String("url", url))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Live feed unavailable", logger.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Live feed returned unexpected status",
			logger.Int("status_code", resp.StatusCode))
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("Failed to read live feed response", logger.Error(err))
		return nil
	}

	var payload RawLivePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("Live feed payload malformed", logger.Error(err))
		return nil
	}

	c.logger.Debug("Fetched live positions", logger.Int("state_count", len(payload.States)))
	return &payload
}
