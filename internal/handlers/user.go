package handlers

import (
	"collabhub/internal/middleware"
	"collabhub/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves account lookups for signed-in callers
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// Me returns the caller's account
// GET /user/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.UserContext(), middleware.Actor(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ListUsers returns the directory of verified users
// GET /user/all-users
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.authService.Directory(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"users": users,
		"count": len(users),
	})
}
