package handler

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/safe-eats/api/internal/ws"
	"github.com/safe-eats/api/pkg/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, validate origin
	},
}

// WSHandler upgrades HTTP connections for the realtime streams
type WSHandler struct {
	manager    *ws.SubscriptionManager
	jwtManager *auth.JWTManager
}

func NewWSHandler(manager *ws.SubscriptionManager, jwtManager *auth.JWTManager) *WSHandler {
	return &WSHandler{
		manager:    manager,
		jwtManager: jwtManager,
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and manages the connection.
// The streams carry only appliance telemetry and transitions, so the socket
// is open: appliances and kitchen displays connect without an account. A
// token, when supplied, must still be valid and attributes the connection
// in the log (WebSocket can't use the Authorization header, hence the query
// parameter).
// Client connects with: ws://host/ws[?token=<jwt_token>]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	who := "anonymous"
	if tokenString := c.Query("token"); tokenString != "" {
		claims, err := h.jwtManager.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		who = fmt.Sprintf("UserID=%s Name=%s", claims.UserID, claims.Name)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.manager, conn)
	h.manager.Register(client)

	log.Printf("✅ WS Connected: %s", who)

	go client.WritePump()
	go client.ReadPump()
}
