package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP)
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	// Sign-in, sign-up and OTP endpoints (per IP)
	CredentialMax        int
	CredentialExpiration time.Duration

	// Comment uploads (per user)
	UploadMax        int
	UploadExpiration time.Duration

	// WebSocket connection attempts (per IP)
	WebSocketMax        int
	WebSocketExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		GlobalAPIMax:        200,
		GlobalAPIExpiration: 1 * time.Minute,

		// 10 attempts per 15 minutes slows down credential stuffing and OTP guessing
		CredentialMax:        10,
		CredentialExpiration: 15 * time.Minute,

		UploadMax:        30,
		UploadExpiration: 1 * time.Minute,

		WebSocketMax:        20,
		WebSocketExpiration: 1 * time.Minute,
	}
}

func envLimit(key string, current int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return current
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	config.GlobalAPIMax = envLimit("RATE_LIMIT_GLOBAL_API", config.GlobalAPIMax)
	config.CredentialMax = envLimit("RATE_LIMIT_CREDENTIALS", config.CredentialMax)
	config.UploadMax = envLimit("RATE_LIMIT_UPLOADS", config.UploadMax)
	config.WebSocketMax = envLimit("RATE_LIMIT_WEBSOCKET", config.WebSocketMax)

	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalAPIMax = 1000
		config.CredentialMax = 100
		config.WebSocketMax = 100
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}

	return config
}

func tooManyRequests(message string, window time.Duration) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":       message,
			"retry_after": int(window.Seconds()),
		})
	}
}

// GlobalAPIRateLimiter creates a rate limiter for all API requests
func GlobalAPIRateLimiter(config *RateLimitConfig) fiber.Handler {
	limited := tooManyRequests("Too many requests. Please slow down.", config.GlobalAPIExpiration)
	return limiter.New(limiter.Config{
		Max:        config.GlobalAPIMax,
		Expiration: config.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Global limit reached for IP: %s", c.IP())
			return limited(c)
		},
	})
}

// CredentialRateLimiter guards sign-in, sign-up and OTP endpoints
func CredentialRateLimiter(config *RateLimitConfig) fiber.Handler {
	limited := tooManyRequests("Too many attempts. Please wait before trying again.", config.CredentialExpiration)
	return limiter.New(limiter.Config{
		Max:        config.CredentialMax,
		Expiration: config.CredentialExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "credentials:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] Credential limit reached for IP: %s on %s", c.IP(), c.Path())
			return limited(c)
		},
	})
}

// UploadRateLimiter limits comment posting per authenticated user
func UploadRateLimiter(config *RateLimitConfig) fiber.Handler {
	limited := tooManyRequests("Too many messages. Please wait before sending more.", config.UploadExpiration)
	return limiter.New(limiter.Config{
		Max:        config.UploadMax,
		Expiration: config.UploadExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
				return "upload:" + userID
			}
			return "upload-ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("⚠️  [RATE-LIMIT] Upload limit reached for user: %v", c.Locals("user_id"))
			return limited(c)
		},
	})
}

// WebSocketRateLimiter for WebSocket connection attempts
func WebSocketRateLimiter(config *RateLimitConfig) fiber.Handler {
	limited := tooManyRequests("Too many connection attempts. Please wait before reconnecting.", config.WebSocketExpiration)
	return limiter.New(limiter.Config{
		Max:        config.WebSocketMax,
		Expiration: config.WebSocketExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "ws:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] WebSocket connection limit reached for IP: %s", c.IP())
			return limited(c)
		},
	})
}
