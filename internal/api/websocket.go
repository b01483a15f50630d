package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/asturlabs/ovdlive/internal/track"
	"github.com/asturlabs/ovdlive/pkg/logger"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingPeriod   = 30 * time.Second
)

// WSHandler streams view-model updates to renderer clients over a
// websocket. Each client gets its own engine subscription; clients that
// fall behind skip frames rather than backing up the engine.
type WSHandler struct {
	engine   *track.Engine
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewWSHandler creates a websocket handler for view updates
func NewWSHandler(engine *track.Engine, allowedOrigins []string, log *logger.Logger) *WSHandler {
	return &WSHandler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		logger: log.Named("api-ws"),
	}
}

// ServeHTTP upgrades the connection and pumps view snapshots until the
// client disconnects
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", logger.Error(err))
		return
	}

	views, cancel := h.engine.Subscribe()
	defer cancel()
	defer conn.Close()

	h.logger.Debug("Websocket client connected", logger.String("remote_addr", r.RemoteAddr))

	// Reader goroutine: we ignore client messages but need the read pump
	// to notice disconnects
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Send the current view immediately so new clients don't wait a tick
	if err := h.writeView(conn, h.engine.GetView()); err != nil {
		return
	}

	pinger := time.NewTicker(wsPingPeriod)
	defer pinger.Stop()

	for {
		select {
		case <-done:
			h.logger.Debug("Websocket client disconnected", logger.String("remote_addr", r.RemoteAddr))
			return
		case view, ok := <-views:
			if !ok {
				return
			}
			if err := h.writeView(conn, view); err != nil {
				h.logger.Debug("Websocket write failed", logger.Error(err))
				return
			}
		case <-pinger.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) writeView(conn *websocket.Conn, view []track.TrackedAircraft) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(AircraftResponse{
		Timestamp: time.Now().UTC(),
		Count:     len(view),
		Aircraft:  view,
	})
}
