package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	usercontroller "github.com/usershub-go/usershub/internal/db/controller/user"
	"github.com/usershub-go/usershub/internal/db/models"
)

// KindLocal is the kind name of the local password provider.
const KindLocal = "local"

func init() { //nolint:gochecknoinits
	RegisterKind(KindLocal, func(deps Deps) Authentication {
		return &LocalProvider{db: deps.DB, reconciler: deps.Reconciler}
	})
}

// LocalProvider authenticates login/password pairs against the local store.
type LocalProvider struct {
	base
	db         *gorm.DB
	reconciler *Reconciler
}

// Kind returns the provider kind name.
func (p *LocalProvider) Kind() string { return KindLocal }

// LoginURL is empty: local authentication has no external login page.
func (p *LocalProvider) LoginURL() string { return "" }

// Schema declares the configuration keys of the local provider.
func (p *LocalProvider) Schema() []ConfigField {
	return baseSchema()
}

// Configure validates and applies the instance settings.
func (p *LocalProvider) Configure(cfg map[string]any) error {
	if err := validateSchema(KindLocal, p.Schema(), cfg); err != nil {
		return err
	}

	p.configureBase(cfg)

	return nil
}

// Authenticate validates the credentials synchronously. Unknown login and
// wrong password both surface ErrInvalidCredentials; the distinct cause is
// kept to the logs so callers cannot enumerate accounts.
func (p *LocalProvider) Authenticate(_ context.Context, creds Credentials) (*Result, error) {
	u, err := usercontroller.GetByLogin(p.db, creds.Login)

	switch {
	case errors.Is(err, usercontroller.ErrUserNotFound):
		log.Debug().Str("provider", p.ID()).Str("login", creds.Login).Msg("login does not exist")

		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, err
	}

	if !u.VerifyPassword(creds.Password) {
		log.Debug().Str("provider", p.ID()).Int("id_role", u.ID).Msg("password mismatch")

		return nil, ErrInvalidCredentials
	}

	// Holders of the correct password may learn the account is disabled;
	// anyone else only ever sees ErrInvalidCredentials.
	if !u.Active {
		return nil, ErrUserInactive
	}

	return &Result{User: u}, nil
}

// Authorize is not meaningful for a synchronous provider.
func (p *LocalProvider) Authorize(context.Context, CallbackData) (*models.User, error) {
	return nil, ErrAuthorizeNotSupported
}

// Revoke is a no-op: there is no remote session to terminate.
func (p *LocalProvider) Revoke(context.Context, string) (*Redirect, error) {
	return nil, nil
}
