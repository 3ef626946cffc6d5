package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/usershub-go/usershub/internal/auth"
	"github.com/usershub-go/usershub/internal/db/models"
	"github.com/usershub-go/usershub/internal/token"
)

// loginRequest is the credential payload of the login endpoint.
type loginRequest struct {
	Login         string `json:"login"`
	Password      string `json:"password"`
	IDApplication int    `json:"id_application"`
}

// providerInfo is the public description of one provider instance.
type providerInfo struct {
	IDProvider string `json:"id_provider"`
	Kind       string `json:"module"`
	Label      string `json:"label"`
	LoginURL   string `json:"login_url,omitempty"`
}

// listProviders describes the configured provider instances so a client
// can render the login choices.
func (s *Service) listProviders(c *fiber.Ctx) error {
	providers := s.authManager.Providers()

	infos := make([]providerInfo, len(providers))
	for i, p := range providers {
		infos[i] = providerInfo{
			IDProvider: p.ID(),
			Kind:       p.Kind(),
			Label:      p.Label(),
			LoginURL:   p.LoginURL(),
		}
	}

	return c.JSON(fiber.Map{"providers": infos})
}

// login runs the credential phase of a provider. Credential-based
// providers answer with a bearer token, redirect-based ones with a 302 to
// the external login page.
func (s *Service) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := s.authManager.Authenticate(c.Context(), c.Params("provider"), auth.Credentials{
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		return authError(err)
	}

	if result.Redirect != nil {
		return c.Redirect(result.Redirect.URL, fiber.StatusFound)
	}

	return s.issueToken(c, result.User, req.IDApplication)
}

// authorize completes a redirect-based flow with the callback data handed
// back by the external provider.
func (s *Service) authorize(c *fiber.Ctx) error {
	user, err := s.authManager.Authorize(c.Context(), c.Params("provider"), auth.CallbackData{
		Code:   c.Query("code"),
		State:  c.Query("state"),
		Ticket: c.Query("ticket"),
	})
	if err != nil {
		return authError(err)
	}

	return s.issueToken(c, user, c.QueryInt("id_application"))
}

// logout runs the provider's revocation phase. A provider without remote
// logout answers 204.
func (s *Service) logout(c *fiber.Ctx) error {
	redirect, err := s.authManager.Revoke(c.Context(), c.Params("provider"), bearerToken(c))
	if err != nil {
		// Best effort: a failed remote logout must not trap the user in a
		// session, so it is logged and the local logout succeeds anyway.
		log.Warn().Err(err).Str("provider", c.Params("provider")).Msg("remote logout failed")
	}

	if redirect != nil {
		return c.Redirect(redirect.URL, fiber.StatusFound)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// issueToken signs a bearer token for an authenticated user.
func (s *Service) issueToken(c *fiber.Ctx, user *models.User, idApplication int) error {
	signed, err := token.Encode(user.ID, idApplication, s.cfg.Security.TokenSecret, s.cfg.Security.TokenTTL())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": signed,
	})
}

// authError maps the authentication error taxonomy onto HTTP statuses. The
// invalid-credentials answer carries no detail, whatever the internal
// cause.
func authError(err error) error {
	var configurationErr *auth.ConfigurationError

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUserInactive):
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrUnknownProvider):
		return fiber.NewError(fiber.StatusNotFound, "unknown provider")
	case errors.Is(err, auth.ErrProviderUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "identity provider unavailable")
	case errors.Is(err, auth.ErrAuthorizeNotSupported):
		return fiber.NewError(fiber.StatusBadRequest, "provider has no callback phase")
	case errors.Is(err, auth.ErrDuplicateIdentity):
		// Lost a reconciliation race, the client can simply retry.
		return fiber.NewError(fiber.StatusConflict, "identity was created concurrently, retry")
	case errors.As(err, &configurationErr):
		return fiber.NewError(fiber.StatusInternalServerError, "provider misconfigured")
	default:
		return err
	}
}
