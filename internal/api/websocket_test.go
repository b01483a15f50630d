package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asturlabs/ovdlive/internal/feed"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

func TestWebsocketStreamsViews(t *testing.T) {
	handler, engine := testRouter(t)
	seedEngine(engine)

	server := httptest.NewServer(handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// The current view is pushed immediately on connect
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var initial AircraftResponse
	require.NoError(t, conn.ReadJSON(&initial))
	require.Equal(t, 1, initial.Count)
	assert.Equal(t, "IBE478", initial.Aircraft[0].Identity)

	// A new live tick produces a fresh frame
	engine.OnLiveTick(&feed.RawLivePayload{
		States: [][]any{
			{"34510c", "IBE478", "Spain", nil, nil, -5.8, 43.7, nil, false, 150.0, 90.0, nil, nil, 2800.0, nil, nil, nil},
			{"4ca1fa", "VLG1562", "Spain", nil, nil, -6.1, 43.5, nil, false, 120.0, 180.0, nil, nil, 2000.0, nil, nil, nil},
		},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var next AircraftResponse
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, 2, next.Count)
}

func TestWebsocketRejectsDisallowedOrigin(t *testing.T) {
	_, engine := testRouter(t)
	ws := NewWSHandler(engine, []string{"http://allowed.example"}, logger.Nop())

	server := httptest.NewServer(ws)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	header := http.Header{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	}
}
