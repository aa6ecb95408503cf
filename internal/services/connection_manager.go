package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"collabhub/internal/models"
)

// UserConnection is one live websocket owned by a user
type UserConnection struct {
	ConnID    string
	UserID    string
	WriteChan chan []byte
	StopChan  chan struct{}
}

// NewUserConnection creates a connection with a buffered outbound queue
func NewUserConnection(connID, userID string) *UserConnection {
	return &UserConnection{
		ConnID:    connID,
		UserID:    userID,
		WriteChan: make(chan []byte, 32),
		StopChan:  make(chan struct{}),
	}
}

// ConnectionManager manages all active WebSocket connections
type ConnectionManager struct {
	connections map[string]*UserConnection
	byUser      map[string]map[string]*UserConnection
	mutex       sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*UserConnection),
		byUser:      make(map[string]map[string]*UserConnection),
	}
}

// Add adds a new connection
func (cm *ConnectionManager) Add(conn *UserConnection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.connections[conn.ConnID] = conn
	if cm.byUser[conn.UserID] == nil {
		cm.byUser[conn.UserID] = make(map[string]*UserConnection)
	}
	cm.byUser[conn.UserID][conn.ConnID] = conn
	GetMetrics().WebSocketConnected()
	log.Printf("✅ Connection added: %s (Total: %d)", conn.ConnID, len(cm.connections))
}

// Remove removes a connection
func (cm *ConnectionManager) Remove(connID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if conn, exists := cm.connections[connID]; exists {
		close(conn.WriteChan)
		close(conn.StopChan)
		delete(cm.connections, connID)
		if userConns := cm.byUser[conn.UserID]; userConns != nil {
			delete(userConns, connID)
			if len(userConns) == 0 {
				delete(cm.byUser, conn.UserID)
			}
		}
		GetMetrics().WebSocketDisconnected()
		log.Printf("❌ Connection removed: %s (Total: %d)", connID, len(cm.connections))
	}
}

// Get retrieves a connection by ID
func (cm *ConnectionManager) Get(connID string) (*UserConnection, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	conn, exists := cm.connections[connID]
	return conn, exists
}

// Count returns the number of active connections
func (cm *ConnectionManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.connections)
}

// CountForUser returns the number of sockets a user has open
func (cm *ConnectionManager) CountForUser(userID string) int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.byUser[userID])
}

// SendToUser queues payload on every socket of a user and returns how many
// accepted it. Sockets with a full queue are skipped.
func (cm *ConnectionManager) SendToUser(userID string, payload []byte) int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	delivered := 0
	for _, conn := range cm.byUser[userID] {
		select {
		case conn.WriteChan <- payload:
			delivered++
		default:
			log.Printf("⚠️  Dropping event for slow connection %s", conn.ConnID)
		}
	}
	return delivered
}

// Notify delivers an event to the user's local sockets
func (cm *ConnectionManager) Notify(ctx context.Context, userID string, event *models.NotificationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️  Failed to marshal notification event: %v", err)
		return
	}
	cm.SendToUser(userID, data)
}
