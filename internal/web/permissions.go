package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applicationcontroller "github.com/usershub-go/usershub/internal/db/controller/application"
	"github.com/usershub-go/usershub/internal/permissions"
)

// cruved returns the authenticated user's effective action levels for an
// application, identified by its unique code. The parent fallback follows
// the application tree.
func (s *Service) cruved(c *fiber.Ctx) error {
	app, err := applicationcontroller.GetByCode(s.db, c.Params("application"))
	if errors.Is(err, applicationcontroller.ErrApplicationNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "unknown application")
	}

	if err != nil {
		return err
	}

	parentID := 0
	if app.ParentID != nil {
		parentID = *app.ParentID
	}

	user := currentUserFromLocals(c)

	cruved, err := s.resolver.Resolve(user.ID, app.ID, parentID)
	if err != nil {
		var configurationErr *permissions.ResolutionConfigurationError
		if errors.As(err, &configurationErr) {
			return fiber.NewError(fiber.StatusNotFound, configurationErr.Error())
		}

		return err
	}

	maxLevel, err := s.resolver.MaxLevelProfile(user.ID, app.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"id_role":        user.ID,
		"id_application": app.ID,
		"cruved":         cruved,
		"max_level":      maxLevel,
	})
}
