package ws

import (
	"convo-hub/auth"
	"convo-hub/services"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Config struct {
	ConnectionBufferSize int
	MaxMessageSize       int64
	WriteWait            time.Duration
	PongWait             time.Duration
	PingInterval         time.Duration
}

func DefaultConfig(connectionBufferSize int) Config {
	return Config{
		ConnectionBufferSize: connectionBufferSize,
		MaxMessageSize:       4096,
		WriteWait:            10 * time.Second,
		PongWait:             60 * time.Second,
		PingInterval:         54 * time.Second,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SubscriptionHandler upgrades authenticated requests to websocket
// connections carrying live subscriptions.
type SubscriptionHandler struct {
	log           *slog.Logger
	subscriptions services.ISubscriptionService
	cfg           Config
}

func NewSubscriptionHandler(log *slog.Logger, subscriptions services.ISubscriptionService, cfg Config) *SubscriptionHandler {
	return &SubscriptionHandler{log: log, subscriptions: subscriptions, cfg: cfg}
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.Engine, requireSession gin.HandlerFunc) {
	r.GET("/api/v1/subscriptions", requireSession, h.Serve)
}

// Serve runs the connection on the request goroutine until it closes.
func (h *SubscriptionHandler) Serve(c *gin.Context) {
	session := auth.SessionFrom(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	connectionID := uuid.NewString()
	h.log.Debug("Connection opened", "connection_id", connectionID, "user_id", session.UserID)
	newConnection(connectionID, h.log, conn, session, h.subscriptions, h.cfg).serve(c.Request.Context())
}
