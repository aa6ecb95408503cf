package preflight

import (
	"context"
	"fmt"
	"log"
	"time"

	"collabhub/internal/config"
)

// Check statuses
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusWarning = "warning"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string
	Message string
	Error   error
}

// Pinger is a backend reachable over the network
type Pinger interface {
	Ping(ctx context.Context) error
}

// AdminCounter reports how many admin accounts exist
type AdminCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Checker performs pre-flight checks before the server starts listening
type Checker struct {
	cfg     *config.Config
	store   Pinger
	redis   Pinger
	admins  AdminCounter
	timeout time.Duration
}

// NewChecker creates a new preflight checker. store and redis may be nil
// when the backend is not in use.
func NewChecker(cfg *config.Config, store, redis Pinger, admins AdminCounter) *Checker {
	return &Checker{
		cfg:     cfg,
		store:   store,
		redis:   redis,
		admins:  admins,
		timeout: 5 * time.Second,
	}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkStoreConnection(ctx),
		c.checkRedisConnection(ctx),
		c.checkCredentials(),
		c.checkAdminAccount(ctx),
	}

	passed, failed, warnings := 0, 0, 0
	for _, result := range results {
		switch result.Status {
		case StatusPass:
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case StatusFail:
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case StatusWarning:
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("📊 Pre-flight summary: %d passed, %d failed, %d warnings", passed, failed, warnings)
	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == StatusFail {
			return true
		}
	}
	return false
}

func (c *Checker) checkStoreConnection(ctx context.Context) CheckResult {
	const name = "Store Connection"
	if c.store == nil {
		return CheckResult{Name: name, Status: StatusPass, Message: "In-memory store, nothing to reach"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.store.Ping(ctx); err != nil {
		return CheckResult{Name: name, Status: StatusFail, Message: "Cannot reach the document store", Error: err}
	}
	return CheckResult{Name: name, Status: StatusPass, Message: "Document store reachable"}
}

// Redis only carries cross-instance fan-out, so losing it is not fatal
func (c *Checker) checkRedisConnection(ctx context.Context) CheckResult {
	const name = "Redis Connection"
	if c.redis == nil {
		return CheckResult{Name: name, Status: StatusWarning, Message: "Redis not configured, notifications stay on this instance"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return CheckResult{Name: name, Status: StatusWarning, Message: "Redis unreachable", Error: err}
	}
	return CheckResult{Name: name, Status: StatusPass, Message: "Redis reachable"}
}

func (c *Checker) checkCredentials() CheckResult {
	const name = "Credentials"
	if c.cfg.JWTSecret == "" {
		if c.cfg.IsProduction() {
			return CheckResult{Name: name, Status: StatusFail, Message: "JWT_SECRET is required in production"}
		}
		return CheckResult{Name: name, Status: StatusWarning, Message: "JWT_SECRET not set, tokens will not survive a restart"}
	}
	if len(c.cfg.JWTSecret) < 32 {
		return CheckResult{Name: name, Status: StatusWarning, Message: fmt.Sprintf("JWT_SECRET is only %d characters", len(c.cfg.JWTSecret))}
	}
	return CheckResult{Name: name, Status: StatusPass, Message: "JWT secret configured"}
}

func (c *Checker) checkAdminAccount(ctx context.Context) CheckResult {
	const name = "Admin Account"
	if c.cfg.AdminSeedEmail != "" {
		return CheckResult{Name: name, Status: StatusPass, Message: "Admin seed configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	count, err := c.admins.Count(ctx)
	if err != nil {
		return CheckResult{Name: name, Status: StatusWarning, Message: "Could not count admins", Error: err}
	}
	if count == 0 {
		return CheckResult{Name: name, Status: StatusWarning, Message: "No admin exists and ADMIN_SEED_EMAIL is not set; projects cannot be approved"}
	}
	return CheckResult{Name: name, Status: StatusPass, Message: fmt.Sprintf("%d admin account(s)", count)}
}
