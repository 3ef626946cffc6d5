package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/usershub-go/usershub/internal/db/models"
)

// KindHub is the kind name of the delegated remote-hub provider.
const KindHub = "usershub"

func init() { //nolint:gochecknoinits
	RegisterKind(KindHub, func(deps Deps) Authentication {
		return &HubProvider{reconciler: deps.Reconciler}
	})
}

// HubProvider delegates password verification to a remote instance of this
// service and reconciles the identity payload it returns.
type HubProvider struct {
	base
	reconciler *Reconciler

	loginURL  string
	logoutURL string

	client *http.Client
}

// hubLoginResponse is the identity payload returned by the remote login
// endpoint.
type hubLoginResponse struct {
	User map[string]any `json:"user"`
}

// Kind returns the provider kind name.
func (p *HubProvider) Kind() string { return KindHub }

// LoginURL returns the remote login endpoint.
func (p *HubProvider) LoginURL() string { return p.loginURL }

// Schema declares the configuration keys of the remote-hub provider.
func (p *HubProvider) Schema() []ConfigField {
	return append(baseSchema(),
		ConfigField{Name: "login_url", Required: true},
		ConfigField{Name: "logout_url"},
		ConfigField{Name: "timeout_seconds"},
	)
}

// Configure validates and applies the instance settings.
func (p *HubProvider) Configure(cfg map[string]any) error {
	if err := validateSchema(KindHub, p.Schema(), cfg); err != nil {
		return err
	}

	p.configureBase(cfg)

	p.loginURL = cfgString(cfg, "login_url")
	p.logoutURL = cfgString(cfg, "logout_url")

	timeout := defaultProviderTimeout
	if seconds := cfgInt(cfg, "timeout_seconds"); seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	p.client = &http.Client{Timeout: timeout}

	return nil
}

// Authenticate forwards the credentials to the remote hub and reconciles
// the returned identity. A remote rejection surfaces as invalid
// credentials; an unreachable hub is a provider outage.
func (p *HubProvider) Authenticate(ctx context.Context, creds Credentials) (*Result, error) {
	payload, err := json.Marshal(map[string]string{
		"login":    creds.Login,
		"password": creds.Password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.loginURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("remote hub unreachable")

		return nil, ErrProviderUnavailable
	}

	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Debug().
			Int("status", resp.StatusCode).
			Str("provider", p.ID()).
			Msg("remote hub rejected the credentials")

		return nil, ErrInvalidCredentials
	}

	var body hubLoginResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("remote hub returned an invalid payload")

		return nil, ErrProviderUnavailable
	}

	user, err := p.reconciler.Reconcile(hubAttributes(body.User), p, ReconcileParams{})
	if err != nil {
		return nil, err
	}

	return &Result{User: user}, nil
}

// Authorize is not part of the remote-hub flow.
func (p *HubProvider) Authorize(context.Context, CallbackData) (*models.User, error) {
	return nil, ErrAuthorizeNotSupported
}

// Revoke redirects to the remote logout page when one is configured.
func (p *HubProvider) Revoke(context.Context, string) (*Redirect, error) {
	if p.logoutURL == "" {
		return nil, nil
	}

	return &Redirect{URL: p.logoutURL}, nil
}

// hubAttributes maps the remote payload onto reconciliation attributes,
// dropping server-side fields that must not cross instances.
func hubAttributes(payload map[string]any) Attributes {
	attrs := make(Attributes, len(payload))

	for key, value := range payload {
		switch key {
		case "id_role", "password", "password_hash", "groups", "providers":
			continue
		case "nom_role":
			attrs["last_name"] = value
		case "prenom_role":
			attrs["first_name"] = value
		case "identifiant":
			attrs["login"] = value
		default:
			attrs[key] = value
		}
	}

	return attrs
}
