package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fitts-go/internal/config"
	"fitts-go/internal/services"
	"fitts-go/internal/study"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const liveDesign = `
target_sizes: [40]
target_amplitudes: [150]
ew_to_w_ratios: [1.5]
screen: {width: 640, height: 480}
placement:
  distractors: 2
`

func TestLiveHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	design, err := config.ParseDesign([]byte(liveDesign))
	require.NoError(t, err)
	manager, err := services.NewManager(services.ManagerOptions{Design: design})
	require.NoError(t, err)

	live, _, err := manager.Create(context.Background(), services.CreateRequest{ParticipantID: 9})
	require.NoError(t, err)

	engine := gin.New()
	engine.GET("/live/:id", NewLiveHandler(zap.NewNop(), manager).Serve)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/" + live.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var n services.Notification
	require.NoError(t, conn.ReadJSON(&n))
	require.Equal(t, services.NotifyState, n.Type)
	require.Len(t, n.State.Targets, 1)
	start := n.State.Targets[0]
	assert.Equal(t, study.KindStart, start.Kind)

	require.NoError(t, conn.WriteJSON(services.Event{Type: services.EventGoal}))
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, services.NotifyIgnored, n.Type)
	assert.Equal(t, "invalid_transition", n.Reason)
	require.NoError(t, conn.ReadJSON(&n))
	assert.Equal(t, services.NotifyState, n.Type)

	require.NoError(t, conn.WriteJSON(services.Event{Type: services.EventSelect, Target: start.ID}))
	require.NoError(t, conn.ReadJSON(&n))
	require.Equal(t, services.NotifyState, n.Type)
	assert.Equal(t, study.AwaitingGoal, n.State.Phase)

	var goal study.TargetID
	for _, tg := range n.State.Targets {
		if tg.Kind == study.KindGoal {
			goal = tg.ID
		}
	}
	require.NoError(t, conn.WriteJSON(services.Event{Type: services.EventSelect, Target: goal}))

	var kinds []string
	for i := 0; i < 3; i++ {
		require.NoError(t, conn.ReadJSON(&n))
		kinds = append(kinds, n.Type)
	}
	assert.Equal(t, []string{services.NotifyTrial, services.NotifySession, services.NotifyState}, kinds)
	assert.Equal(t, study.Completed, n.State.Phase)
}

func TestLiveHandler_UnknownSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	design, err := config.ParseDesign([]byte(liveDesign))
	require.NoError(t, err)
	manager, err := services.NewManager(services.ManagerOptions{Design: design})
	require.NoError(t, err)

	engine := gin.New()
	engine.GET("/live/:id", NewLiveHandler(zap.NewNop(), manager).Serve)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}
