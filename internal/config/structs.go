package config

import (
	"time"

	"github.com/usershub-go/usershub/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Security  Security
	Auth      Auth `toml:"authentication"`
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string // domain name for the webserver
	Port         int    // listening port for the webserver
	ShutDownTime int    // wait time for shutdown
	URL          string // base url for the webserver
}

// Security holds the token and password settings.
type Security struct {
	// TokenSecret signs the bearer tokens handed out after login.
	TokenSecret string `validate:"required"`
	// TokenTTLMinutes is the bearer token lifetime in minutes.
	TokenTTLMinutes int
	// Password is the policy applied to self-service password choices.
	Password PasswordPolicy
}

// TokenTTL returns the bearer token lifetime.
func (s Security) TokenTTL() time.Duration {
	return time.Duration(s.TokenTTLMinutes) * time.Minute
}

// PasswordPolicy lists the criteria a chosen password must satisfy.
type PasswordPolicy struct {
	MinLength               int
	RequireDigit            bool
	RequireSpecialCharacter bool
	RequireMultipleCase     bool
}

// Auth holds the provider declarations consumed by the auth manager at
// startup. Each declaration names the provider kind under "module", its
// unique "id_provider", and whatever kind-specific keys the provider's
// configuration schema declares.
type Auth struct {
	// DefaultReconciliationGroupID, when non-zero, is the group attached
	// to users created by reconciliation when the provider supplies no
	// group information.
	DefaultReconciliationGroupID int `toml:"default_reconciliation_group_id"`
	// Providers is the list of provider instance declarations.
	Providers []map[string]any `toml:"providers"`
}
