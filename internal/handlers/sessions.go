package handlers

import (
	"errors"
	"net/http"

	"fitts-go/internal/repository"
	"fitts-go/internal/services"
	"fitts-go/internal/study"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sessionKey holds the participant's current study session id in the cookie.
const sessionKey = "studySessionID"

type SessionHandler struct {
	log     *zap.Logger
	manager *services.Manager
	store   *repository.Store
}

func NewSessionHandler(log *zap.Logger, manager *services.Manager, store *repository.Store) *SessionHandler {
	return &SessionHandler{log: log, manager: manager, store: store}
}

// Create starts a new study session and remembers it in the cookie session.
func (h *SessionHandler) Create(c *gin.Context) {
	var req services.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session request"})
		return
	}

	live, state, err := h.manager.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrBadRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("Failed to create study session", zap.Int("participant", req.ParticipantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKey, live.ID)
	if err := session.Save(); err != nil {
		h.log.Warn("Failed to save cookie session", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"id": live.ID, "seed": live.Seed, "state": state})
}

// Current returns the session stored in the cookie.
func (h *SessionHandler) Current(c *gin.Context) {
	id, ok := sessions.Default(c).Get(sessionKey).(string)
	if !ok || id == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No current session"})
		return
	}
	h.show(c, id)
}

// Get returns the live state of a session, or its stored record once it is
// no longer held in memory.
func (h *SessionHandler) Get(c *gin.Context) {
	h.show(c, c.Param("id"))
}

func (h *SessionHandler) show(c *gin.Context, id string) {
	state, err := h.manager.Snapshot(id)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"id": id, "live": true, "state": state})
		return
	}

	record, err := h.store.GetSession(c.Request.Context(), id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		h.log.Error("Failed to load study session", zap.String("session", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "live": false, "session": record})
}

// Event applies one input event to a live session.
func (h *SessionHandler) Event(c *gin.Context) {
	id := c.Param("id")
	var ev services.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event"})
		return
	}

	state, err := h.manager.Apply(c.Request.Context(), id, ev)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"state": state})
	case errors.Is(err, services.ErrSessionNotLive):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session is not live"})
	case errors.Is(err, services.ErrUnknownEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case study.IsIgnorable(err):
		c.JSON(http.StatusConflict, gin.H{
			"error":  err.Error(),
			"reason": services.IgnoreReason(err),
			"state":  state,
		})
	default:
		h.log.Error("Failed to apply event", zap.String("session", id), zap.String("event", string(ev.Type)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply event"})
	}
}
