package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asturlabs/ovdlive/internal/config"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

func testStation() config.StationConfig {
	return config.StationConfig{
		AirportIATA: "OVD",
		BBoxSouth:   43.0,
		BBoxNorth:   44.5,
		BBoxWest:    -7.5,
		BBoxEast:    -4.5,
	}
}

func newLiveClient(baseURL string) *LiveClient {
	return NewLiveClient(config.LiveFeedConfig{
		BaseURL:               baseURL,
		RequestTimeoutSeconds: 2,
	}, testStation(), logger.Nop())
}

func TestFetchLivePositions(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/states/all", r.URL.Path)
		w.Write([]byte(`{
			"time": 1700000000,
			"states": [
				["4ca1fa", "VLG1234 ", "Spain", null, null, -5.9, 43.6, null, false, 180.5, 92.0, null, null, 3200.4, null, null, null]
			]
		}`))
	}))
	defer server.Close()

	payload := newLiveClient(server.URL).FetchLivePositions(context.Background())
	require.NotNil(t, payload)
	assert.Equal(t, int64(1700000000), payload.Time)
	require.Len(t, payload.States, 1)
	assert.Equal(t, "4ca1fa", payload.States[0][0])

	assert.Contains(t, gotQuery, "lamin=43.0000")
	assert.Contains(t, gotQuery, "lamax=44.5000")
	assert.Contains(t, gotQuery, "lomin=-7.5000")
	assert.Contains(t, gotQuery, "lomax=-4.5000")
}

func TestFetchLivePositionsNullStates(t *testing.T) {
	// The aggregator returns "states": null when the box is empty
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"time": 1700000000, "states": null}`))
	}))
	defer server.Close()

	payload := newLiveClient(server.URL).FetchLivePositions(context.Background())
	require.NotNil(t, payload, "an empty box is a successful poll, not a failure")
	assert.Empty(t, payload.States)
}

func TestFetchLivePositionsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	assert.Nil(t, newLiveClient(server.URL).FetchLivePositions(context.Background()))
}

func TestFetchLivePositionsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"time": `))
	}))
	defer server.Close()

	assert.Nil(t, newLiveClient(server.URL).FetchLivePositions(context.Background()))
}

func TestFetchLivePositionsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	assert.Nil(t, newLiveClient(server.URL).FetchLivePositions(context.Background()))
}

func TestFetchLivePositionsCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"time": 1, "states": []}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, newLiveClient(server.URL).FetchLivePositions(ctx))
}
