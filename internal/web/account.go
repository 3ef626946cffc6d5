package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	usercontroller "github.com/usershub-go/usershub/internal/db/controller/user"
	"github.com/usershub-go/usershub/internal/usermanager"
)

// registerRequest is the self-registration payload.
type registerRequest struct {
	Login                string         `json:"login"`
	FirstName            string         `json:"first_name"`
	LastName             string         `json:"last_name"`
	Email                string         `json:"email"`
	Password             string         `json:"password"`
	PasswordConfirmation string         `json:"password_confirmation"`
	OrganismeID          *int           `json:"id_organisme"`
	AdditionalData       map[string]any `json:"additional_data"`
}

// register stages a self-registration. The confirmation token is delivered
// out of band; it is never part of the response.
func (s *Service) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	temp, err := s.userManager.CreateTempUser(usermanager.Registration{
		Login:                req.Login,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		OrganismeID:          req.OrganismeID,
		AdditionalData:       req.AdditionalData,
	})
	if err != nil {
		return accountError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(temp)
}

// confirmRegistration promotes a staged registration.
func (s *Service) confirmRegistration(c *fiber.Ctx) error {
	user, err := s.userManager.ValidTempUser(c.Params("token"))
	if err != nil {
		return accountError(err)
	}

	return c.JSON(user)
}

// forgotRequest identifies the account asking for a password reset.
type forgotRequest struct {
	Login string `json:"login"`
}

// forgotPassword issues a reset token. The response never reveals whether
// the login exists; the token itself travels out of band.
func (s *Service) forgotPassword(c *fiber.Ctx) error {
	var req forgotRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := usercontroller.GetByLogin(s.db, req.Login)
	if err == nil {
		if _, err = s.userManager.CreateUserToken(user.ID); err != nil {
			return err
		}
	} else if !errors.Is(err, usercontroller.ErrUserNotFound) {
		return err
	} else {
		log.Debug().Str("login", req.Login).Msg("password reset requested for unknown login")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// changeRequest carries a reset token and the new password choice.
type changeRequest struct {
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// changePassword consumes a reset token and stores the new password.
func (s *Service) changePassword(c *fiber.Ctx) error {
	var req changeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := s.userManager.ChangePassword(req.Token, req.Password, req.PasswordConfirmation)
	if err != nil {
		return accountError(err)
	}

	return c.JSON(user)
}

// accountError maps the account-flow error taxonomy onto HTTP statuses.
func accountError(err error) error {
	switch {
	case errors.Is(err, usermanager.ErrPasswordMismatch),
		errors.Is(err, usermanager.ErrPasswordTooShort),
		errors.Is(err, usermanager.ErrPasswordNeedsDigit),
		errors.Is(err, usermanager.ErrPasswordNeedsSpecial),
		errors.Is(err, usermanager.ErrPasswordNeedsMixedCase):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, usermanager.ErrUnknownConfirmationToken),
		errors.Is(err, usermanager.ErrUnknownResetToken):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}
