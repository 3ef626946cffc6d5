package auth

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/db/models"
)

// Credentials is a login/password pair submitted to a synchronous provider.
type Credentials struct {
	Login    string
	Password string
}

// CallbackData carries the query parameters of a redirect-based provider's
// callback: an OAuth2 authorization code and state, or a CAS service ticket.
type CallbackData struct {
	Code   string
	State  string
	Ticket string
}

// Redirect instructs the caller to send the user agent to an external page.
type Redirect struct {
	URL string
}

// Result is the outcome of Authenticate: either a resolved user
// (synchronous providers) or a redirect instruction (CAS, OIDC).
type Result struct {
	User     *models.User
	Redirect *Redirect
}

// ConfigField describes one key of a provider kind's configuration schema.
// The auth manager validates declarations against the schema at startup, so
// a missing credential fails the boot instead of the first login attempt.
type ConfigField struct {
	Name     string
	Required bool
	Default  any
}

// Authentication is the contract every identity source implements. The auth
// manager treats all providers identically through it.
type Authentication interface {
	// Kind is the provider kind name, shared by all instances of the same
	// implementation and used as the Provider row key in the store.
	Kind() string
	// ID is the unique instance identifier chosen at configuration time.
	// Two instances of the same kind are addressable independently.
	ID() string
	// Label is the human-facing name of the instance.
	Label() string
	// LoginURL is the external login page, empty for synchronous providers.
	LoginURL() string
	// GroupMapping maps provider-side group keys to local group ids.
	GroupMapping() map[string]int
	// Schema declares the configuration keys this kind understands.
	Schema() []ConfigField
	// Configure validates and applies per-instance settings. A missing
	// required key fails with *ConfigurationError naming it.
	Configure(cfg map[string]any) error
	// Authenticate begins or completes a login. Synchronous providers
	// resolve the credentials immediately; redirect-based providers return
	// a Redirect and resolve the user later in Authorize.
	Authenticate(ctx context.Context, creds Credentials) (*Result, error)
	// Authorize completes a redirect-based flow and reconciles the
	// external identity into a local user.
	Authorize(ctx context.Context, cb CallbackData) (*models.User, error)
	// Revoke terminates the remote session, best effort. A provider
	// without remote sessions returns (nil, nil).
	Revoke(ctx context.Context, sessionToken string) (*Redirect, error)
}

// Deps are the collaborators handed to a provider factory.
type Deps struct {
	DB         *gorm.DB
	Reconciler *Reconciler
}

// Factory builds an unconfigured provider instance of one kind.
type Factory func(deps Deps) Authentication

// kindRegistry maps provider kind names to factories. It is populated by
// RegisterKind during package initialization and read-only afterwards, which
// keeps provider loading a compile-time concern instead of reflection.
var kindRegistry = map[string]Factory{} //nolint:gochecknoglobals

// RegisterKind adds a provider kind to the registry. Called from init
// functions; a duplicate kind name panics since it is a programming error.
func RegisterKind(kind string, f Factory) {
	if _, ok := kindRegistry[kind]; ok {
		panic("auth: provider kind registered twice: " + kind)
	}

	kindRegistry[kind] = f
}

// Kinds returns the registered provider kind names, sorted.
func Kinds() []string {
	out := make([]string, 0, len(kindRegistry))
	for k := range kindRegistry {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// baseSchema lists the configuration keys every provider kind shares.
func baseSchema() []ConfigField {
	return []ConfigField{
		{Name: "id_provider", Required: true},
		{Name: "label"},
		{Name: "logo"},
		{Name: "group_mapping"},
	}
}

// validateSchema checks cfg against a schema and reports the first missing
// required key. Defaults are written back into cfg so providers read final
// values only.
func validateSchema(kind string, schema []ConfigField, cfg map[string]any) error {
	for _, field := range schema {
		v, ok := cfg[field.Name]

		if !ok || v == nil || v == "" {
			if field.Required {
				return &ConfigurationError{Provider: kind, Key: field.Name}
			}

			if field.Default != nil {
				cfg[field.Name] = field.Default
			}
		}
	}

	return nil
}

// base carries the per-instance settings shared by all provider kinds.
type base struct {
	idProvider   string
	label        string
	logo         string
	groupMapping map[string]int
}

func (b *base) ID() string                   { return b.idProvider }
func (b *base) Label() string                { return b.label }
func (b *base) GroupMapping() map[string]int { return b.groupMapping }

// configureBase applies the shared fields out of a validated configuration.
func (b *base) configureBase(cfg map[string]any) {
	b.idProvider = cfgString(cfg, "id_provider")
	b.label = cfgString(cfg, "label")
	b.logo = cfgString(cfg, "logo")
	b.groupMapping = cfgGroupMapping(cfg)
}

// cfgString reads a string key from a decoded configuration map.
func cfgString(cfg map[string]any, key string) string {
	if v, ok := cfg[key].(string); ok {
		return v
	}

	return ""
}

// cfgBool reads a boolean key from a decoded configuration map.
func cfgBool(cfg map[string]any, key string) bool {
	if v, ok := cfg[key].(bool); ok {
		return v
	}

	return false
}

// cfgInt reads an integer key, accepting the numeric types toml and JSON
// decoding produce.
func cfgInt(cfg map[string]any, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// cfgStrings reads a string list key.
func cfgStrings(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// cfgGroupMapping reads the group_mapping table, accepting the numeric types
// toml and JSON decoding produce for the local group ids.
func cfgGroupMapping(cfg map[string]any) map[string]int {
	raw, ok := cfg["group_mapping"].(map[string]any)
	if !ok {
		if typed, okTyped := cfg["group_mapping"].(map[string]int); okTyped {
			return typed
		}

		return nil
	}

	out := make(map[string]int, len(raw))

	for k, v := range raw {
		switch n := v.(type) {
		case int:
			out[k] = n
		case int64:
			out[k] = int(n)
		case float64:
			out[k] = int(n)
		}
	}

	return out
}
