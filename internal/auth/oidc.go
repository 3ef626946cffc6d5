package auth

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/usershub-go/usershub/internal/db/models"
	"github.com/usershub-go/usershub/internal/uniuri"
)

// KindOIDC is the kind name of the OpenID Connect provider.
const KindOIDC = "openid"

func init() { //nolint:gochecknoinits
	RegisterKind(KindOIDC, func(deps Deps) Authentication {
		return &OIDCProvider{reconciler: deps.Reconciler}
	})
}

// OIDCProvider implements the OpenID Connect authorization-code flow.
// Discovery against the issuer is deferred to the first authentication so a
// temporarily unreachable identity provider does not block startup.
type OIDCProvider struct {
	base
	reconciler *Reconciler

	issuer       string
	clientID     string
	clientSecret string
	redirectURL  string
	scopes       []string
	groupsClaim  string

	discoverMu sync.Mutex
	provider   *oidc.Provider
	verifier   *oidc.IDTokenVerifier
	oauth2     oauth2.Config
}

// oidcClaims are the ID token claims used for reconciliation.
type oidcClaims struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Kind returns the provider kind name.
func (p *OIDCProvider) Kind() string { return KindOIDC }

// LoginURL returns the issuer URL; the real authorization URL carries
// per-request state and is built during Authenticate.
func (p *OIDCProvider) LoginURL() string { return p.issuer }

// Schema declares the configuration keys of the OIDC provider.
func (p *OIDCProvider) Schema() []ConfigField {
	return append(baseSchema(),
		ConfigField{Name: "issuer", Required: true},
		ConfigField{Name: "client_id", Required: true},
		ConfigField{Name: "client_secret", Required: true},
		ConfigField{Name: "redirect_url", Required: true},
		ConfigField{Name: "scopes"},
		ConfigField{Name: "groups_claim", Default: "groups"},
	)
}

// Configure validates and applies the instance settings.
func (p *OIDCProvider) Configure(cfg map[string]any) error {
	if err := validateSchema(KindOIDC, p.Schema(), cfg); err != nil {
		return err
	}

	p.configureBase(cfg)

	p.issuer = cfgString(cfg, "issuer")
	p.clientID = cfgString(cfg, "client_id")
	p.clientSecret = cfgString(cfg, "client_secret")
	p.redirectURL = cfgString(cfg, "redirect_url")
	p.groupsClaim = cfgString(cfg, "groups_claim")

	p.scopes = cfgStrings(cfg, "scopes")
	if len(p.scopes) == 0 {
		p.scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return nil
}

// ensureDiscovered performs issuer discovery on the first call and caches
// the verifier and the endpoint configuration. A failed discovery is retried
// on the next call.
func (p *OIDCProvider) ensureDiscovered(ctx context.Context) error {
	p.discoverMu.Lock()
	defer p.discoverMu.Unlock()

	if p.provider != nil {
		return nil
	}

	provider, err := oidc.NewProvider(ctx, p.issuer)
	if err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("oidc discovery failed")

		return ErrProviderUnavailable
	}

	p.provider = provider
	p.verifier = provider.Verifier(&oidc.Config{ClientID: p.clientID})
	p.oauth2 = oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  p.redirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       p.scopes,
	}

	return nil
}

// Authenticate starts the flow with a redirect to the authorization
// endpoint.
func (p *OIDCProvider) Authenticate(ctx context.Context, _ Credentials) (*Result, error) {
	if err := p.ensureDiscovered(ctx); err != nil {
		return nil, err
	}

	state := uniuri.NewLen(uniuri.TokenLen)

	return &Result{Redirect: &Redirect{URL: p.oauth2.AuthCodeURL(state)}}, nil
}

// Authorize exchanges the authorization code, verifies the ID token and
// reconciles the identity into a local user.
func (p *OIDCProvider) Authorize(ctx context.Context, cb CallbackData) (*models.User, error) {
	if err := p.ensureDiscovered(ctx); err != nil {
		return nil, err
	}

	if cb.Code == "" {
		log.Debug().Str("provider", p.ID()).Msg("callback without authorization code")

		return nil, ErrInvalidCredentials
	}

	token, err := p.oauth2.Exchange(ctx, cb.Code)
	if err != nil {
		log.Debug().Err(err).Str("provider", p.ID()).Msg("authorization code exchange rejected")

		return nil, ErrInvalidCredentials
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Debug().Err(err).Str("provider", p.ID()).Msg("id token verification failed")

		return nil, ErrInvalidCredentials
	}

	var claims oidcClaims
	if err = idToken.Claims(&claims); err != nil {
		return nil, ErrInvalidCredentials
	}

	attrs := Attributes{
		"email":      claims.Email,
		"login":      claims.Email,
		"first_name": claims.GivenName,
		"last_name":  claims.FamilyName,
	}

	return p.reconciler.Reconcile(attrs, p, ReconcileParams{
		SourceGroupKeys: p.groupsFromToken(idToken),
	})
}

// Revoke redirects to the issuer's end-session endpoint when it advertises
// one.
func (p *OIDCProvider) Revoke(ctx context.Context, rawIDToken string) (*Redirect, error) {
	if err := p.ensureDiscovered(ctx); err != nil {
		return nil, err
	}

	var meta struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}

	if err := p.provider.Claims(&meta); err != nil || meta.EndSessionEndpoint == "" {
		return nil, nil
	}

	logout := meta.EndSessionEndpoint
	if rawIDToken != "" {
		logout += "?id_token_hint=" + url.QueryEscape(rawIDToken)
	}

	return &Redirect{URL: logout}, nil
}

// groupsFromToken extracts the group names carried by the configured claim.
func (p *OIDCProvider) groupsFromToken(idToken *oidc.IDToken) []string {
	var allClaims map[string]any
	if err := idToken.Claims(&allClaims); err != nil {
		return nil
	}

	v, ok := allClaims[p.groupsClaim]
	if !ok {
		return nil
	}

	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		groups := make([]string, 0, len(vv))

		for _, g := range vv {
			if s, isStr := g.(string); isStr && strings.TrimSpace(s) != "" {
				groups = append(groups, s)
			}
		}

		return groups
	default:
		return nil
	}
}
