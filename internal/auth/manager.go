package auth

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	usercontroller "github.com/usershub-go/usershub/internal/db/controller/user"
	"github.com/usershub-go/usershub/internal/db/models"
)

// Manager owns the configured provider instances and dispatches
// authentication flows to them by instance identifier. The instance set is
// fixed at startup; lookups after that are read-only and safe for
// concurrent use.
type Manager struct {
	db        *gorm.DB
	providers map[string]Authentication
}

// NewManager creates an empty provider manager.
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:        db,
		providers: make(map[string]Authentication),
	}
}

// InitProviders instantiates and registers one provider per declaration.
// Any invalid declaration aborts startup: a misconfigured provider must
// never run half-configured.
func (m *Manager) InitProviders(declarations []map[string]any, deps Deps) error {
	for _, declaration := range declarations {
		kind := cfgString(declaration, "module")

		factory, ok := kindRegistry[kind]
		if !ok {
			return fmt.Errorf("provider kind %q: %w", kind, ErrUnknownProviderKind)
		}

		provider := factory(deps)
		if err := provider.Configure(declaration); err != nil {
			return err
		}

		if err := m.Register(provider); err != nil {
			return err
		}
	}

	return nil
}

// Register adds a configured provider instance and records its kind in the
// providers table so user-provider links can reference it. Two instances of
// the same kind share one row.
func (m *Manager) Register(p Authentication) error {
	if _, exists := m.providers[p.ID()]; exists {
		return fmt.Errorf("provider %q: %w", p.ID(), ErrDuplicateProvider)
	}

	if _, err := usercontroller.EnsureProvider(m.db, p.Kind(), p.LoginURL()); err != nil {
		return err
	}

	m.providers[p.ID()] = p

	log.Info().Str("provider", p.ID()).Str("kind", p.Kind()).Msg("authentication provider registered")

	return nil
}

// Get returns the provider instance with the given identifier.
func (m *Manager) Get(idProvider string) (Authentication, error) {
	p, ok := m.providers[idProvider]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", idProvider, ErrUnknownProvider)
	}

	return p, nil
}

// Providers lists the registered instances in a stable order, for the
// provider discovery endpoint.
func (m *Manager) Providers() []Authentication {
	ids := make([]string, 0, len(m.providers))
	for id := range m.providers {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	providers := make([]Authentication, len(ids))
	for i, id := range ids {
		providers[i] = m.providers[id]
	}

	return providers
}

// Authenticate runs the credential phase of the identified provider.
func (m *Manager) Authenticate(ctx context.Context, idProvider string, creds Credentials) (*Result, error) {
	p, err := m.Get(idProvider)
	if err != nil {
		return nil, err
	}

	return p.Authenticate(ctx, creds)
}

// Authorize runs the callback phase of the identified provider.
func (m *Manager) Authorize(ctx context.Context, idProvider string, cb CallbackData) (*models.User, error) {
	p, err := m.Get(idProvider)
	if err != nil {
		return nil, err
	}

	return p.Authorize(ctx, cb)
}

// Revoke runs the logout phase of the identified provider.
func (m *Manager) Revoke(ctx context.Context, idProvider, token string) (*Redirect, error) {
	p, err := m.Get(idProvider)
	if err != nil {
		return nil, err
	}

	return p.Revoke(ctx, token)
}
