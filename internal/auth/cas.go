package auth

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/db/models"
)

// KindCAS is the kind name of the CAS ticket provider.
const KindCAS = "cas"

const defaultProviderTimeout = 10 * time.Second

func init() { //nolint:gochecknoinits
	RegisterKind(KindCAS, func(deps Deps) Authentication {
		return &CASProvider{db: deps.DB, reconciler: deps.Reconciler}
	})
}

// CASProvider implements the CAS redirect/ticket-validation flow. The user
// is sent to the external CAS login page and comes back with a service
// ticket, which Authorize validates before reconciling the identity.
type CASProvider struct {
	base
	db         *gorm.DB
	reconciler *Reconciler

	loginURL    string
	logoutURL   string
	validateURL string
	infoURL     string
	serviceURL  string
	wsID        string
	wsPassword  string

	client *http.Client
}

// casServiceResponse is the CAS serviceValidate XML payload.
type casServiceResponse struct {
	XMLName xml.Name `xml:"serviceResponse"`
	Success *struct {
		User string `xml:"user"`
	} `xml:"authenticationSuccess"`
	Failure *struct {
		Code    string `xml:"code,attr"`
		Message string `xml:",chardata"`
	} `xml:"authenticationFailure"`
}

// casUserInfo is the identity payload served by the CAS user-info endpoint.
type casUserInfo struct {
	ID            int    `json:"id"`
	Login         string `json:"login"`
	LastName      string `json:"nom"`
	FirstName     string `json:"prenom"`
	Email         string `json:"email"`
	OrganismeID   int    `json:"codeOrganisme"`
	OrganismeName string `json:"libelleLongOrganisme"`
}

// Kind returns the provider kind name.
func (p *CASProvider) Kind() string { return KindCAS }

// LoginURL returns the external CAS login page.
func (p *CASProvider) LoginURL() string { return p.loginURL }

// Schema declares the configuration keys of the CAS provider.
func (p *CASProvider) Schema() []ConfigField {
	return append(baseSchema(),
		ConfigField{Name: "login_url", Required: true},
		ConfigField{Name: "validate_url", Required: true},
		ConfigField{Name: "service_url", Required: true},
		ConfigField{Name: "ws_id", Required: true},
		ConfigField{Name: "ws_password", Required: true},
		ConfigField{Name: "logout_url"},
		ConfigField{Name: "info_url"},
		ConfigField{Name: "timeout_seconds"},
	)
}

// Configure validates and applies the instance settings.
func (p *CASProvider) Configure(cfg map[string]any) error {
	if err := validateSchema(KindCAS, p.Schema(), cfg); err != nil {
		return err
	}

	p.configureBase(cfg)

	p.loginURL = cfgString(cfg, "login_url")
	p.logoutURL = cfgString(cfg, "logout_url")
	p.validateURL = cfgString(cfg, "validate_url")
	p.infoURL = cfgString(cfg, "info_url")
	p.serviceURL = cfgString(cfg, "service_url")
	p.wsID = cfgString(cfg, "ws_id")
	p.wsPassword = cfgString(cfg, "ws_password")

	timeout := defaultProviderTimeout
	if seconds := cfgInt(cfg, "timeout_seconds"); seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	p.client = &http.Client{Timeout: timeout}

	return nil
}

// Authenticate starts the flow with a redirect to the CAS login page.
func (p *CASProvider) Authenticate(context.Context, Credentials) (*Result, error) {
	return &Result{Redirect: &Redirect{
		URL: p.loginURL + "?service=" + url.QueryEscape(p.serviceURL),
	}}, nil
}

// Authorize validates the service ticket, fetches the user's identity from
// the CAS info endpoint and reconciles it into a local user.
func (p *CASProvider) Authorize(ctx context.Context, cb CallbackData) (*models.User, error) {
	if cb.Ticket == "" {
		log.Debug().Str("provider", p.ID()).Msg("callback without service ticket")

		return nil, ErrInvalidCredentials
	}

	login, err := p.validateTicket(ctx, cb.Ticket)
	if err != nil {
		return nil, err
	}

	info, err := p.fetchUserInfo(ctx, login)
	if err != nil {
		return nil, err
	}

	attrs := Attributes{
		"login":      info.Login,
		"email":      info.Email,
		"first_name": info.FirstName,
		"last_name":  info.LastName,
	}

	if info.OrganismeID != 0 {
		if err = p.upsertOrganisme(info); err != nil {
			return nil, err
		}

		attrs["id_organisme"] = info.OrganismeID
	}

	return p.reconciler.Reconcile(attrs, p, ReconcileParams{})
}

// Revoke redirects to the CAS logout page when one is configured.
func (p *CASProvider) Revoke(context.Context, string) (*Redirect, error) {
	if p.logoutURL == "" {
		return nil, nil
	}

	return &Redirect{URL: p.logoutURL + "?service=" + url.QueryEscape(p.serviceURL)}, nil
}

// validateTicket exchanges the service ticket against the CAS validation
// endpoint and returns the authenticated login. A CAS-side rejection is an
// authentication failure; a network failure is a provider outage, never to
// be mistaken for bad credentials.
func (p *CASProvider) validateTicket(ctx context.Context, ticket string) (string, error) {
	validate := fmt.Sprintf("%s?ticket=%s&service=%s",
		p.validateURL, url.QueryEscape(ticket), url.QueryEscape(p.serviceURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validate, nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("cas validation endpoint unreachable")

		return "", ErrProviderUnavailable
	}

	defer closeBody(resp.Body)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ErrProviderUnavailable
	}

	var parsed casServiceResponse
	if err = xml.Unmarshal(payload, &parsed); err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("cas validation response is not valid xml")

		return "", ErrProviderUnavailable
	}

	if parsed.Success == nil || parsed.Success.User == "" {
		if parsed.Failure != nil {
			log.Debug().
				Str("provider", p.ID()).
				Str("code", parsed.Failure.Code).
				Msg("cas rejected the service ticket")
		}

		return "", ErrInvalidCredentials
	}

	return parsed.Success.User, nil
}

// fetchUserInfo loads the identity attributes of a validated login from the
// CAS info endpoint, authenticated with the web-service credentials. Without
// a configured endpoint the login itself is the only attribute.
func (p *CASProvider) fetchUserInfo(ctx context.Context, login string) (*casUserInfo, error) {
	if p.infoURL == "" {
		return &casUserInfo{Login: login, Email: login}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.infoURL+"/"+url.PathEscape(login), nil)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(p.wsID, p.wsPassword)

	resp, err := p.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("cas info endpoint unreachable")

		return nil, ErrProviderUnavailable
	}

	defer closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Str("provider", p.ID()).Msg("cas info endpoint error")

		return nil, ErrProviderUnavailable
	}

	var info casUserInfo
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, ErrProviderUnavailable
	}

	if info.Login == "" {
		info.Login = login
	}

	return &info, nil
}

// upsertOrganisme keeps the organization referenced by a CAS identity
// present in the store.
func (p *CASProvider) upsertOrganisme(info *casUserInfo) error {
	name := info.OrganismeName
	if name == "" {
		name = "Autre"
	}

	org := models.Organisme{ID: info.OrganismeID}

	err := p.db.Where("id = ?", info.OrganismeID).
		Attrs(models.Organisme{Name: name, UUID: uuid.New()}).
		FirstOrCreate(&org).Error

	return err
}

func closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close response body")
	}
}
