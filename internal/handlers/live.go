package handlers

import (
	"errors"
	"net/http"
	"time"

	"fitts-go/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// LiveHandler streams a session over a WebSocket: events are read as JSON
// and every notification of the session is written back.
type LiveHandler struct {
	log     *zap.Logger
	manager *services.Manager
}

func NewLiveHandler(log *zap.Logger, manager *services.Manager) *LiveHandler {
	return &LiveHandler{log: log, manager: manager}
}

func (h *LiveHandler) Serve(c *gin.Context) {
	id := c.Param("id")
	state, err := h.manager.Snapshot(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session is not live"})
		return
	}
	notifications, cancel, err := h.manager.Subscribe(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session is not live"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		h.log.Error("Failed to upgrade connection to WebSocket", zap.Error(err))
		return
	}
	log := h.log.With(zap.String("session", id))
	log.Debug("Live connection opened")

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(services.Notification{Type: services.NotifyState, State: &state}); err != nil {
		cancel()
		conn.Close()
		return
	}

	go h.writePump(conn, notifications)
	h.readPump(c, conn, id, log)
	cancel()
}

// writePump owns every write after the first snapshot.
func (h *LiveHandler) writePump(conn *websocket.Conn, notifications <-chan services.Notification) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case n, ok := <-notifications:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *LiveHandler) readPump(c *gin.Context, conn *websocket.Conn, id string, log *zap.Logger) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var ev services.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		// Per-event errors reach the client as ignored notifications.
		if _, err := h.manager.Apply(c.Request.Context(), id, ev); errors.Is(err, services.ErrSessionNotLive) {
			return
		}
	}
}
