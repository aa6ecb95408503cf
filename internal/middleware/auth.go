package middleware

import (
	"context"
	"errors"
	"log"

	"collabhub/internal/models"
	"collabhub/internal/services"
	"collabhub/pkg/auth"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// IdentityResolver maps a credential email to an account
type IdentityResolver interface {
	ResolveUser(ctx context.Context, email string) (*models.User, error)
	ResolveAdmin(ctx context.Context, email string) (*models.Admin, error)
}

// AuthGuard verifies credentials and resolves them to users or admins
type AuthGuard struct {
	jwt        *auth.LocalJWTAuth
	identities IdentityResolver
}

// NewAuthGuard creates a guard over a JWT verifier and identity resolver
func NewAuthGuard(jwtAuth *auth.LocalJWTAuth, identities IdentityResolver) *AuthGuard {
	return &AuthGuard{jwt: jwtAuth, identities: identities}
}

// credential reads the token from the authorization header. Websocket
// upgrades may pass it as the token query parameter instead, since browsers
// cannot set headers on the handshake.
func credential(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" && websocket.IsWebSocketUpgrade(c) {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
	}
	return auth.ExtractToken(header)
}

func (g *AuthGuard) verify(c *fiber.Ctx) (*auth.Identity, error) {
	token, err := credential(c)
	if err != nil {
		return nil, err
	}
	return g.jwt.VerifyToken(token)
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
	})
}

// rejectCredential maps a token failure to its 401 body
func rejectCredential(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return unauthorized(c, auth.ErrMissingToken.Error())
	case errors.Is(err, auth.ErrExpiredToken):
		return unauthorized(c, auth.ErrExpiredToken.Error())
	default:
		return unauthorized(c, auth.ErrInvalidToken.Error())
	}
}

// rejectLookup maps an identity resolution failure to a response
func rejectLookup(c *fiber.Ctx, err error) error {
	if svcErr, ok := services.AsError(err); ok {
		return unauthorized(c, svcErr.Message)
	}
	log.Printf("❌ Identity lookup failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to resolve identity",
	})
}

func setUser(c *fiber.Ctx, user *models.User) {
	c.Locals("user_id", user.ID)
	c.Locals("email", user.Email)
	c.Locals("role", models.RoleUser)
}

func setAdmin(c *fiber.Ctx, admin *models.Admin) {
	c.Locals("admin_id", admin.ID)
	c.Locals("email", admin.Email)
	c.Locals("role", models.RoleAdmin)
}

// rejectUserState writes the rejection for accounts that may not act yet
// or anymore. It reports whether the request was rejected.
func rejectUserState(c *fiber.Ctx, user *models.User) (bool, error) {
	switch user.State {
	case models.UserStatePending:
		return true, unauthorized(c, "user not verified")
	case models.UserStateBlocked:
		return true, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "user is blocked",
		})
	}
	return false, nil
}

// RequireUser admits verified users only
func (g *AuthGuard) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := g.verify(c)
		if err != nil {
			return rejectCredential(c, err)
		}

		user, err := g.identities.ResolveUser(c.UserContext(), identity.Email)
		if err != nil {
			return rejectLookup(c, err)
		}
		if rejected, err := rejectUserState(c, user); rejected {
			return err
		}

		setUser(c, user)
		return c.Next()
	}
}

// RequireAdmin admits admins only
func (g *AuthGuard) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := g.verify(c)
		if err != nil {
			return rejectCredential(c, err)
		}

		admin, err := g.identities.ResolveAdmin(c.UserContext(), identity.Email)
		if err != nil {
			return rejectLookup(c, err)
		}

		setAdmin(c, admin)
		return c.Next()
	}
}

// RequireUserOrAdmin admits either role, trying the role named in the
// credential first.
func (g *AuthGuard) RequireUserOrAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := g.verify(c)
		if err != nil {
			return rejectCredential(c, err)
		}
		ctx := c.UserContext()

		if identity.Role != models.RoleAdmin {
			user, err := g.identities.ResolveUser(ctx, identity.Email)
			if err == nil {
				if rejected, err := rejectUserState(c, user); rejected {
					return err
				}
				setUser(c, user)
				return c.Next()
			}
			if !services.IsKind(err, services.KindUnauthorized) {
				return rejectLookup(c, err)
			}
		}

		admin, err := g.identities.ResolveAdmin(ctx, identity.Email)
		if err == nil {
			setAdmin(c, admin)
			return c.Next()
		}
		if !services.IsKind(err, services.KindUnauthorized) || identity.Role != models.RoleAdmin {
			return rejectLookup(c, err)
		}

		// credential minted before a role migration
		user, err := g.identities.ResolveUser(ctx, identity.Email)
		if err != nil {
			return rejectLookup(c, err)
		}
		if rejected, err := rejectUserState(c, user); rejected {
			return err
		}
		setUser(c, user)
		return c.Next()
	}
}

// Actor returns the authenticated caller stored by the guard
func Actor(c *fiber.Ctx) services.Actor {
	role, _ := c.Locals("role").(string)
	email, _ := c.Locals("email").(string)

	id, _ := c.Locals("user_id").(string)
	if role == models.RoleAdmin {
		id, _ = c.Locals("admin_id").(string)
	}
	return services.Actor{ID: id, Email: email, Role: role}
}
