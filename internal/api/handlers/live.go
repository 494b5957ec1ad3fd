package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cortexbi/cortex/pkg/logger"
)

// SnapshotFunc produces the payload pushed to live subscribers.
type SnapshotFunc func(ctx context.Context) (interface{}, error)

// LiveHandler streams KPI snapshots over a websocket so dashboards update
// without polling.
type LiveHandler struct {
	upgrader websocket.Upgrader
	snapshot SnapshotFunc
	interval time.Duration
	logger   *logger.Logger
}

// NewLiveHandler creates a new live stream handler pushing a fresh
// snapshot every interval.
func NewLiveHandler(snapshot SnapshotFunc, interval time.Duration, log *logger.Logger) *LiveHandler {
	return &LiveHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The dashboard is served from a different origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		snapshot: snapshot,
		interval: interval,
		logger:   log,
	}
}

// ServeKPIs upgrades the connection and pushes snapshots until the client
// disconnects.
// GET /ws/kpis
func (h *LiveHandler) ServeKPIs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("Live KPI subscriber connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: discard client messages, notice disconnects.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.WithError(err).Debug("Live KPI subscriber read error")
				}
				return
			}
		}
	}()

	if err := h.push(ctx, conn); err != nil {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.push(ctx, conn); err != nil {
				return
			}
		}
	}
}

func (h *LiveHandler) push(ctx context.Context, conn *websocket.Conn) error {
	payload, err := h.snapshot(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to build live KPI snapshot")
		return nil
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(payload); err != nil {
		h.logger.WithError(err).Debug("Live KPI subscriber write error")
		return err
	}
	return nil
}
