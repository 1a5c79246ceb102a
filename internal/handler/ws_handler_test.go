package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safe-eats/api/internal/bus"
	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/internal/ws"
	"github.com/safe-eats/api/pkg/auth"
)

type wsTestServer struct {
	srv        *httptest.Server
	bus        *bus.Bus
	jwtManager *auth.JWTManager
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eventBus := bus.New()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	h := NewWSHandler(ws.NewSubscriptionManager(eventBus), jwtManager)

	router := gin.New()
	router.GET("/ws", h.HandleWebSocket)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &wsTestServer{srv: srv, bus: eventBus, jwtManager: jwtManager}
}

func (s *wsTestServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
}

// Appliances and kitchen displays have no account, so a tokenless dial must
// upgrade and serve subscriptions end to end.
func TestWebSocketConnectsWithoutToken(t *testing.T) {
	ts := newWSTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.url(), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	applianceID := uuid.New()
	require.NoError(t, conn.WriteJSON(model.WSEvent{
		Type:    model.WSEventSubscribe,
		Payload: model.SubscribeRequest{Stream: "temperature", ApplianceID: applianceID},
	}))

	// the subscribe frame is processed asynchronously by the read pump
	require.Eventually(t, func() bool {
		return ts.bus.TotalListeners() == 1
	}, 2*time.Second, 10*time.Millisecond)

	ts.bus.PublishTemperature(bus.TemperatureEvent{
		ApplianceID:  applianceID,
		TemperatureC: 100,
		TemperatureF: 212,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame model.WSEvent
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, model.WSEventTemperatureUpdate, frame.Type)
	require.NotNil(t, frame.ApplianceID)
	assert.Equal(t, applianceID, *frame.ApplianceID)
}

func TestWebSocketAcceptsValidToken(t *testing.T) {
	ts := newWSTestServer(t)

	token, err := ts.jwtManager.GenerateToken(uuid.New(), "chef@safeeats.local", "Chef")
	require.NoError(t, err)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.url()+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
}

func TestWebSocketRejectsInvalidToken(t *testing.T) {
	ts := newWSTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.url()+"?token=not-a-jwt", nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
