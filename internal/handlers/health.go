package handlers

import (
	"context"
	"time"

	"collabhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a backend the health check can probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	connManager  *services.ConnectionManager
	storeBackend string
	store        Pinger
	redis        Pinger
}

// NewHealthHandler creates a new health handler. store and redis may be nil
// when the backend has nothing to probe.
func NewHealthHandler(connManager *services.ConnectionManager, storeBackend string, store, redis Pinger) *HealthHandler {
	return &HealthHandler{
		connManager:  connManager,
		storeBackend: storeBackend,
		store:        store,
		redis:        redis,
	}
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "ok"
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	store := h.storeBackend
	if h.store != nil {
		store = h.storeBackend + ":" + probe(ctx, h.store)
	}
	redis := probe(ctx, h.redis)

	status := "healthy"
	code := fiber.StatusOK
	if h.store != nil && store != h.storeBackend+":ok" {
		status = "unhealthy"
		code = fiber.StatusServiceUnavailable
	} else if redis == "unreachable" {
		status = "degraded"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":      status,
		"store":       store,
		"redis":       redis,
		"connections": h.connManager.Count(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}
