package web

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	usercontroller "github.com/usershub-go/usershub/internal/db/controller/user"
	"github.com/usershub-go/usershub/internal/db/models"
	"github.com/usershub-go/usershub/internal/token"
)

// Locals keys set by the middleware.
const (
	localUser          = "user"
	localIDApplication = "id_application"
)

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimPrefix(header, "Bearer ")
}

// RequireUser resolves the current user from the bearer token and stores
// it in the request locals. Expired tokens get their own message so a
// client can distinguish re-login from tampering.
func (s *Service) RequireUser(c *fiber.Ctx) error {
	raw := bearerToken(c)
	if raw == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}

	claims, err := token.Decode(raw, s.cfg.Security.TokenSecret)

	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return fiber.NewError(fiber.StatusUnauthorized, "token expired")
	case err != nil:
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	user, err := usercontroller.GetByID(s.db, claims.IDRole)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	if !user.Active {
		return fiber.NewError(fiber.StatusUnauthorized, "account is inactive")
	}

	c.Locals(localUser, user)
	c.Locals(localIDApplication, claims.IDApplication)

	return c.Next()
}

// currentUserFromLocals returns the user stored by RequireUser.
func currentUserFromLocals(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)

	return user
}

// currentUser returns the authenticated user.
func (s *Service) currentUser(c *fiber.Ctx) error {
	return c.JSON(currentUserFromLocals(c))
}
