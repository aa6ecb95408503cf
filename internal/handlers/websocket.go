package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"collabhub/internal/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	readTimeout  = 90 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second

	// inbound messages per second a single socket may send, with a small burst
	clientMessageRate  = 5
	clientMessageBurst = 10
)

// clientMessage is a request sent by the browser over the socket
type clientMessage struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id,omitempty"`
}

// serverMessage is a control reply; notification events are sent as-is
type serverMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// NotificationSocketHandler streams unread-counter events to signed-in users
type NotificationSocketHandler struct {
	connManager         *services.ConnectionManager
	notificationService *services.NotificationService
}

// NewNotificationSocketHandler creates a new notification socket handler
func NewNotificationSocketHandler(connManager *services.ConnectionManager, notificationService *services.NotificationService) *NotificationSocketHandler {
	return &NotificationSocketHandler{
		connManager:         connManager,
		notificationService: notificationService,
	}
}

// Handle serves one websocket for its whole lifetime
// GET /ws/notifications
func (h *NotificationSocketHandler) Handle(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)
	userConn := services.NewUserConnection(uuid.NewString(), userID)

	h.connManager.Add(userConn)
	defer h.connManager.Remove(userConn.ConnID)

	c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.writeLoop(c, userConn)
	go h.pingLoop(c, userConn)

	h.sendSnapshot(userConn)
	h.readLoop(c, userConn)
}

// writeLoop is the only writer of data frames; it ends when the connection
// manager closes the queue.
func (h *NotificationSocketHandler) writeLoop(c *websocket.Conn, userConn *services.UserConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic in writeLoop: %v", r)
		}
	}()

	for payload := range userConn.WriteChan {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("❌ WebSocket write error for %s: %v", userConn.ConnID, err)
			return
		}
	}
}

// pingLoop keeps idle sockets alive behind proxies until the connection
// manager closes StopChan
func (h *NotificationSocketHandler) pingLoop(c *websocket.Conn, userConn *services.UserConnection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-userConn.StopChan:
			return
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout)); err != nil {
				log.Printf("⚠️ Ping failed for %s: %v", userConn.ConnID, err)
				return
			}
		}
	}
}

// readLoop handles incoming messages from the client
func (h *NotificationSocketHandler) readLoop(c *websocket.Conn, userConn *services.UserConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic in readLoop: %v", r)
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(clientMessageRate), clientMessageBurst)

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("❌ WebSocket read error for %s: %v", userConn.ConnID, err)
			}
			return
		}
		c.SetReadDeadline(time.Now().Add(readTimeout))

		if !limiter.Allow() {
			h.reply(userConn, serverMessage{Type: "error", Message: "too many messages"})
			continue
		}

		var clientMsg clientMessage
		if err := json.Unmarshal(msg, &clientMsg); err != nil {
			log.Printf("⚠️  Invalid message format from %s: %v", userConn.ConnID, err)
			h.reply(userConn, serverMessage{Type: "error", Message: "invalid message format"})
			continue
		}

		switch clientMsg.Type {
		case "ping":
			h.reply(userConn, serverMessage{Type: "pong"})
		case "snapshot":
			h.sendSnapshot(userConn)
		case "mark_read":
			h.markRead(userConn, clientMsg.ProjectID)
		default:
			log.Printf("⚠️  Unknown message type: %s", clientMsg.Type)
		}
	}
}

// enqueue hands a payload to writeLoop without blocking the reader. Only
// called from the socket's own goroutine, before Remove closes the queue.
func (h *NotificationSocketHandler) enqueue(userConn *services.UserConnection, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("❌ Failed to encode socket message: %v", err)
		return
	}
	select {
	case userConn.WriteChan <- data:
	default:
		log.Printf("⚠️  Dropping message for slow connection %s", userConn.ConnID)
	}
}

func (h *NotificationSocketHandler) reply(userConn *services.UserConnection, msg serverMessage) {
	h.enqueue(userConn, msg)
}

func (h *NotificationSocketHandler) sendSnapshot(userConn *services.UserConnection) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event, err := h.notificationService.Snapshot(ctx, userConn.UserID)
	if err != nil {
		log.Printf("⚠️  Failed to build snapshot for user %s: %v", userConn.UserID, err)
		return
	}
	h.enqueue(userConn, event)
}

// markRead lets the client clear a counter without a REST round trip. The
// resulting event reaches this socket through the notifier.
func (h *NotificationSocketHandler) markRead(userConn *services.UserConnection, projectID string) {
	if projectID == "" {
		h.reply(userConn, serverMessage{Type: "error", Message: "project_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.notificationService.MarkRead(ctx, userConn.UserID, projectID); err != nil {
		msg := "failed to mark as read"
		if svcErr, ok := services.AsError(err); ok {
			msg = svcErr.Message
		} else {
			log.Printf("❌ mark_read failed for user %s: %v", userConn.UserID, err)
		}
		h.reply(userConn, serverMessage{Type: "error", Message: msg})
	}
}
