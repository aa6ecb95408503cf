package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"collabhub/internal/models"

	"github.com/redis/go-redis/v9"
)

// PubSubService fans notification events out across instances through Redis.
// Events are delivered to local sockets immediately and published so that
// other instances can deliver to theirs.
type PubSubService struct {
	redis      *RedisService
	local      *ConnectionManager
	pubsub     *redis.PubSub
	handlers   map[string][]MessageHandler
	mu         sync.RWMutex
	instanceID string
	ctx        context.Context
	cancel     context.CancelFunc
}

// MessageHandler is a callback for handling pub/sub messages
type MessageHandler func(channel string, message *PubSubMessage)

// PubSubMessage represents a message sent via pub/sub
type PubSubMessage struct {
	Type       string                    `json:"type"`
	UserID     string                    `json:"userId"`
	InstanceID string                    `json:"instanceId"`
	Event      *models.NotificationEvent `json:"event"`
}

// UserEventsPattern matches every per-user event channel
const UserEventsPattern = "user:*:events"

// UserChannel returns the event channel for a user
func UserChannel(userID string) string {
	return "user:" + userID + ":events"
}

// NewPubSubService creates a new pub/sub service
func NewPubSubService(redisService *RedisService, local *ConnectionManager, instanceID string) *PubSubService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PubSubService{
		redis:      redisService,
		local:      local,
		handlers:   make(map[string][]MessageHandler),
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.Subscribe(UserEventsPattern, s.deliverLocal)
	return s
}

// Subscribe registers a handler for a channel pattern
func (s *PubSubService) Subscribe(pattern string, handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[pattern] = append(s.handlers[pattern], handler)
	log.Printf("📡 [PUBSUB] Subscribed to pattern: %s", pattern)
}

// Start begins listening for pub/sub messages
func (s *PubSubService) Start() error {
	s.pubsub = s.redis.Client().PSubscribe(s.ctx, UserEventsPattern)

	// Wait for subscription confirmation
	if _, err := s.pubsub.Receive(s.ctx); err != nil {
		return err
	}

	go s.processMessages()

	log.Printf("✅ [PUBSUB] Started listening for messages (instance: %s)", s.instanceID)
	return nil
}

func (s *PubSubService) processMessages() {
	ch := s.pubsub.Channel()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleMessage(msg.Channel, []byte(msg.Payload))
		}
	}
}

// handleMessage dispatches a raw message to the matching handlers
func (s *PubSubService) handleMessage(channel string, payload []byte) {
	var message PubSubMessage
	if err := json.Unmarshal(payload, &message); err != nil {
		log.Printf("⚠️ [PUBSUB] Failed to unmarshal message: %v", err)
		return
	}

	// Skip messages from this instance (already delivered locally)
	if message.InstanceID == s.instanceID {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for pattern, handlers := range s.handlers {
		if matchPattern(pattern, channel) {
			for _, handler := range handlers {
				handler(channel, &message)
			}
		}
	}
}

func (s *PubSubService) deliverLocal(_ string, message *PubSubMessage) {
	if message.Event == nil || message.UserID == "" {
		return
	}
	s.local.Notify(s.ctx, message.UserID, message.Event)
}

// Notify delivers locally and publishes for the other instances
func (s *PubSubService) Notify(ctx context.Context, userID string, event *models.NotificationEvent) {
	s.local.Notify(ctx, userID, event)

	data, err := json.Marshal(&PubSubMessage{
		Type:       event.Type,
		UserID:     userID,
		InstanceID: s.instanceID,
		Event:      event,
	})
	if err != nil {
		log.Printf("⚠️ [PUBSUB] Failed to marshal event: %v", err)
		return
	}

	if err := s.redis.Publish(ctx, UserChannel(userID), data); err != nil {
		log.Printf("⚠️ [PUBSUB] Failed to publish event for user %s: %v", userID, err)
	}
}

// Stop stops the pub/sub service
func (s *PubSubService) Stop() error {
	s.cancel()
	if s.pubsub != nil {
		return s.pubsub.Close()
	}
	return nil
}

// matchPattern checks if a channel matches a pattern (segment glob on ':')
func matchPattern(pattern, channel string) bool {
	if pattern == channel {
		return true
	}

	patternParts := strings.Split(pattern, ":")
	channelParts := strings.Split(channel, ":")

	if len(patternParts) != len(channelParts) {
		return false
	}

	for i, part := range patternParts {
		if part != "*" && part != channelParts[i] {
			return false
		}
	}

	return true
}
