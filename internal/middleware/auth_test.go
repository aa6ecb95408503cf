package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"collabhub/internal/memstore"
	"collabhub/internal/models"
	"collabhub/internal/services"
	"collabhub/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guardFixture struct {
	app    *fiber.App
	jwt    *auth.LocalJWTAuth
	stores *services.Stores
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	stores := memstore.New()
	jwtAuth, err := auth.NewLocalJWTAuth("guard-secret", time.Hour)
	require.NoError(t, err)
	guard := NewAuthGuard(jwtAuth, services.NewIdentityService(stores.Users, stores.Admins, 0))

	echo := func(c *fiber.Ctx) error {
		actor := Actor(c)
		return c.JSON(fiber.Map{"id": actor.ID, "email": actor.Email, "role": actor.Role})
	}

	app := fiber.New()
	app.Get("/user", guard.RequireUser(), echo)
	app.Get("/admin", guard.RequireAdmin(), echo)
	app.Get("/either", guard.RequireUserOrAdmin(), echo)

	ctx := context.Background()
	for _, u := range []*models.User{
		{ID: "u-verified", Email: "verified@example.com", State: models.UserStateVerified},
		{ID: "u-pending", Email: "pending@example.com", State: models.UserStatePending},
		{ID: "u-blocked", Email: "blocked@example.com", State: models.UserStateBlocked},
	} {
		require.NoError(t, stores.Users.Create(ctx, u))
	}
	require.NoError(t, stores.Admins.Create(ctx, &models.Admin{ID: "a-root", Email: "root@example.com"}))

	return &guardFixture{app: app, jwt: jwtAuth, stores: stores}
}

func (f *guardFixture) token(t *testing.T, id, email, role string) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(id, email, role)
	require.NoError(t, err)
	return token
}

func (f *guardFixture) call(t *testing.T, path, authorization string) (int, map[string]string) {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]string{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestGuardCredentialFailures(t *testing.T) {
	f := newGuardFixture(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.JWTClaims{
		UserID: "u-verified",
		Email:  "verified@example.com",
		Role:   models.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString(f.jwt.SecretKey)
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		wantError     string
	}{
		{"missing", "", "authorization token missing"},
		{"garbage", "not-a-jwt", "invalid token"},
		{"wrong scheme", "Basic abc", "invalid token"},
		{"bearer without token", "Bearer ", "authorization token missing"},
		{"expired", expiredToken, "token expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.call(t, "/user", tt.authorization)
			assert.Equal(t, fiber.StatusUnauthorized, status)
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestGuardRequireUser(t *testing.T) {
	f := newGuardFixture(t)

	status, body := f.call(t, "/user", f.token(t, "u-verified", "verified@example.com", models.RoleUser))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "u-verified", body["id"])
	assert.Equal(t, models.RoleUser, body["role"])

	status, _ = f.call(t, "/user", "Bearer "+f.token(t, "u-verified", "verified@example.com", models.RoleUser))
	assert.Equal(t, fiber.StatusOK, status)

	status, body = f.call(t, "/user", f.token(t, "u-pending", "pending@example.com", models.RoleUser))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "user not verified", body["error"])

	status, _ = f.call(t, "/user", f.token(t, "u-blocked", "blocked@example.com", models.RoleUser))
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = f.call(t, "/user", f.token(t, "a-root", "root@example.com", models.RoleAdmin))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "user not found", body["error"])
}

func TestGuardRequireAdmin(t *testing.T) {
	f := newGuardFixture(t)

	status, body := f.call(t, "/admin", f.token(t, "a-root", "root@example.com", models.RoleAdmin))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "a-root", body["id"])

	status, body = f.call(t, "/admin", f.token(t, "u-verified", "verified@example.com", models.RoleUser))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "admin not found", body["error"])
}

func TestGuardRequireUserOrAdmin(t *testing.T) {
	f := newGuardFixture(t)

	status, body := f.call(t, "/either", f.token(t, "u-verified", "verified@example.com", models.RoleUser))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.RoleUser, body["role"])

	status, body = f.call(t, "/either", f.token(t, "a-root", "root@example.com", models.RoleAdmin))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.RoleAdmin, body["role"])
	assert.Equal(t, "a-root", body["id"])

	// a user token whose account was promoted still resolves
	status, body = f.call(t, "/either", f.token(t, "a-root", "root@example.com", models.RoleUser))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.RoleAdmin, body["role"])

	status, _ = f.call(t, "/either", f.token(t, "x", "ghost@example.com", models.RoleUser))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGuardQueryTokenOnlyForWebsocket(t *testing.T) {
	f := newGuardFixture(t)
	token := f.token(t, "u-verified", "verified@example.com", models.RoleUser)

	status, _ := f.call(t, "/user?token="+token, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	req := httptest.NewRequest("GET", "/user?token="+token, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGuardRejectionSkipsHandler(t *testing.T) {
	f := newGuardFixture(t)

	calls := 0
	counted := func(c *fiber.Ctx) error {
		calls++
		return c.SendStatus(fiber.StatusNoContent)
	}
	guard := NewAuthGuard(f.jwt, services.NewIdentityService(f.stores.Users, f.stores.Admins, 0))
	f.app.Post("/counted/user", guard.RequireUser(), counted)
	f.app.Post("/counted/admin", guard.RequireAdmin(), counted)
	f.app.Post("/counted/either", guard.RequireUserOrAdmin(), counted)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.JWTClaims{
		UserID: "u-verified",
		Email:  "verified@example.com",
		Role:   models.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString(f.jwt.SecretKey)
	require.NoError(t, err)

	pending := f.token(t, "u-pending", "pending@example.com", models.RoleUser)
	blocked := f.token(t, "u-blocked", "blocked@example.com", models.RoleUser)

	tests := []struct {
		name          string
		path          string
		authorization string
		wantStatus    int
	}{
		{"user missing", "/counted/user", "", fiber.StatusUnauthorized},
		{"user invalid", "/counted/user", "not-a-jwt", fiber.StatusUnauthorized},
		{"user expired", "/counted/user", expiredToken, fiber.StatusUnauthorized},
		{"user pending", "/counted/user", pending, fiber.StatusUnauthorized},
		{"user blocked", "/counted/user", blocked, fiber.StatusForbidden},
		{"admin missing", "/counted/admin", "", fiber.StatusUnauthorized},
		{"admin invalid", "/counted/admin", "not-a-jwt", fiber.StatusUnauthorized},
		{"admin expired", "/counted/admin", expiredToken, fiber.StatusUnauthorized},
		{"admin with user token", "/counted/admin", pending, fiber.StatusUnauthorized},
		{"either missing", "/counted/either", "", fiber.StatusUnauthorized},
		{"either invalid", "/counted/either", "not-a-jwt", fiber.StatusUnauthorized},
		{"either expired", "/counted/either", expiredToken, fiber.StatusUnauthorized},
		{"either pending", "/counted/either", pending, fiber.StatusUnauthorized},
		{"either blocked", "/counted/either", blocked, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.path, nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			resp, err := f.app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, 0, calls)
		})
	}

	req := httptest.NewRequest("POST", "/counted/either", nil)
	req.Header.Set("Authorization", f.token(t, "u-verified", "verified@example.com", models.RoleUser))
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, calls)
}
