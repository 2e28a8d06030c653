package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"young_network/logger"
	"young_network/middleware"
	"young_network/model"
	"young_network/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	notificationPattern = "notifications:user:*"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection of a user.
type Client struct {
	ID     uuid.UUID
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
	mu     sync.Mutex
	closed bool
}

// Hub tracks live notification streams, several devices per user. With
// Redis configured, notifications go through pub/sub so every instance
// delivers to its own clients; without it delivery is local only.
type Hub struct {
	Clients map[int64]map[uuid.UUID]*Client
	mu      sync.RWMutex

	MaxConnectionsPerUser int

	rdb       *redis.Client
	publisher *service.RedisPublisher
	sessions  *middleware.Sessions
	notifSvc  *service.NotificationService

	stopPubSub chan struct{}
	stopOnce   sync.Once
}

func NewHub(rdb *redis.Client, sessions *middleware.Sessions, notifSvc *service.NotificationService) *Hub {
	h := &Hub{
		Clients:               make(map[int64]map[uuid.UUID]*Client),
		MaxConnectionsPerUser: 10,
		rdb:                   rdb,
		sessions:              sessions,
		notifSvc:              notifSvc,
		stopPubSub:            make(chan struct{}),
	}
	if rdb != nil {
		h.publisher = service.NewRedisPublisher(rdb)
	}
	return h
}

// Register adds a client, refusing it once the user has too many devices.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.Clients[client.UserID] == nil {
		h.Clients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	if len(h.Clients[client.UserID]) >= h.MaxConnectionsPerUser {
		h.mu.Unlock()

		logger.Log.Warn("too many notification connections",
			zap.Int64("user_id", client.UserID),
			zap.Int("max", h.MaxConnectionsPerUser),
		)
		msg := fmt.Sprintf("Maximum %d devices allowed", h.MaxConnectionsPerUser)
		_ = client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, msg))
		_ = client.Conn.Close()
		return false
	}
	h.Clients[client.UserID][client.ID] = client
	devices := len(h.Clients[client.UserID])
	h.mu.Unlock()

	middleware.GetMetrics().WebSocketConnections.Inc()
	logger.Log.Info("notification stream connected",
		zap.Int64("user_id", client.UserID),
		zap.String("client_id", client.ID.String()),
		zap.Int("devices", devices),
	)
	return true
}

// Unregister removes a client and closes its send channel once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	removed := false
	if userClients, ok := h.Clients[client.UserID]; ok {
		if _, found := userClients[client.ID]; found {
			delete(userClients, client.ID)
			removed = true
			if len(userClients) == 0 {
				delete(h.Clients, client.UserID)
			}
		}
	}
	h.mu.Unlock()

	if removed {
		middleware.GetMetrics().WebSocketConnections.Dec()
	}

	client.mu.Lock()
	if !client.closed {
		close(client.Send)
		client.closed = true
	}
	client.mu.Unlock()
}

// IsOnline reports whether userID has a connection on this instance.
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients[userID]) > 0
}

// SendToUser writes message to every local device of userID. A client
// whose buffer is full is dropped.
func (h *Hub) SendToUser(userID int64, message []byte) bool {
	h.mu.RLock()
	userClients := h.Clients[userID]
	clients := make([]*Client, 0, len(userClients))
	for _, c := range userClients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := false
	for _, c := range clients {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			continue
		}
		select {
		case c.Send <- message:
			sent = true
		default:
			logger.Log.Warn("notification buffer full, dropping client",
				zap.Int64("user_id", userID),
				zap.String("client_id", c.ID.String()),
			)
			go h.Unregister(c)
		}
		c.mu.Unlock()
	}
	return sent
}

func frame(kind string, data interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{"type": kind, "data": data})
}

func (h *Hub) deliverLocal(userID int64, notificationType string, payload json.RawMessage) {
	msg, err := frame("notification", payload)
	if err != nil {
		logger.ErrorWithFields("failed to encode notification", err)
		return
	}
	if h.SendToUser(userID, msg) {
		middleware.GetMetrics().NotificationsPushed.WithLabelValues(notificationType).Inc()
	}
}

// SendNotification implements service.HubNotifier.
func (h *Hub) SendNotification(ctx context.Context, userID int64, n *model.Notification) error {
	if h.publisher != nil {
		err := h.publisher.SendNotification(ctx, userID, n)
		if err == nil {
			return nil
		}
		logger.WarnWithFields("notification publish failed, delivering locally", err, zap.Int64("user_id", userID))
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	h.deliverLocal(userID, n.Type, payload)
	return nil
}

// userFromChannel parses the recipient out of a notification channel name.
func userFromChannel(channel string) (int64, bool) {
	i := strings.LastIndex(channel, ":")
	if i < 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(channel[i+1:], 10, 64)
	return id, err == nil && id > 0
}

func (h *Hub) handlePublished(msg *redis.Message) {
	userID, ok := userFromChannel(msg.Channel)
	if !ok {
		logger.Log.Warn("ignoring message on unexpected channel", zap.String("channel", msg.Channel))
		return
	}
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(msg.Payload), &probe); err != nil {
		logger.ErrorWithFields("invalid notification payload", err, zap.String("channel", msg.Channel))
		return
	}
	h.deliverLocal(userID, probe.Type, json.RawMessage(msg.Payload))
}

// StartPubSub subscribes to every user's notification channel. It returns
// once the subscription is confirmed.
func (h *Hub) StartPubSub(ctx context.Context) error {
	if h.rdb == nil {
		return nil
	}
	pubsub := h.rdb.PSubscribe(ctx, notificationPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-h.stopPubSub:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.handlePublished(msg)
			}
		}
	}()
	logger.Log.Info("notification pub/sub started", zap.String("pattern", notificationPattern))
	return nil
}

func (h *Hub) StopPubSub() {
	h.stopOnce.Do(func() { close(h.stopPubSub) })
}

// HandleWebSocket opens a notification stream. The token comes from the
// token query parameter or the usual auth headers.
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimSpace(c.GetHeader("X-Auth-Token"))
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		userID, err := hub.sessions.ValidateToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorWithFields("websocket upgrade failed", err, zap.Int64("user_id", userID))
			return
		}

		client := &Client{
			ID:     uuid.New(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Hub:    hub,
		}
		if !hub.Register(client) {
			return
		}

		go client.writePump()
		go client.readPump()
		client.sendUnreadCount(c.Request.Context())
	}
}

// sendUnreadCount greets a new connection with its unread total.
func (c *Client) sendUnreadCount(ctx context.Context) {
	if c.Hub.notifSvc == nil {
		return
	}
	page, err := c.Hub.notifSvc.List(ctx, c.UserID)
	if err != nil {
		logger.ErrorWithFields("failed to load unread count", err, zap.Int64("user_id", c.UserID))
		return
	}
	msg, err := frame("notification_update", map[string]interface{}{"unread_count": page.UnreadCount})
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- msg:
	default:
	}
}

// readPump only keeps the connection alive; clients do not send commands.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				logger.WarnWithFields("notification stream closed unexpectedly", err, zap.Int64("user_id", c.UserID))
			}
			return
		}
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
