package auth

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/usershub-go/usershub/internal/db/models"
)

// KindLDAP is the kind name of the LDAP/Active Directory provider.
const KindLDAP = "ldap"

func init() { //nolint:gochecknoinits
	RegisterKind(KindLDAP, func(deps Deps) Authentication {
		return &LDAPProvider{reconciler: deps.Reconciler}
	})
}

// LDAPProvider authenticates users against an LDAP directory with a
// bind-search-bind flow and reconciles the directory entry into a local
// user. Group DNs found in the directory go through the instance group
// mapping.
type LDAPProvider struct {
	base
	reconciler *Reconciler

	host            string
	port            int
	useSSL          bool
	useTLS          bool
	skipVerify      bool
	bindDN          string
	bindPassword    string
	baseDN          string
	userFilter      string
	groupBaseDN     string
	groupFilter     string
	usernameAttr    string
	emailAttr       string
	firstNameAttr   string
	lastNameAttr    string
	timeout         time.Duration
	timeoutSeconds  int
}

// Kind returns the provider kind name.
func (p *LDAPProvider) Kind() string { return KindLDAP }

// LoginURL returns the directory URL.
func (p *LDAPProvider) LoginURL() string {
	scheme := "ldap"
	if p.useSSL {
		scheme = "ldaps"
	}

	return scheme + "://" + net.JoinHostPort(p.host, strconv.Itoa(p.port))
}

// Schema declares the configuration keys of the LDAP provider.
func (p *LDAPProvider) Schema() []ConfigField {
	return append(baseSchema(),
		ConfigField{Name: "host", Required: true},
		ConfigField{Name: "port", Default: 389},
		ConfigField{Name: "base_dn", Required: true},
		ConfigField{Name: "user_filter", Default: "(uid={username})"},
		ConfigField{Name: "bind_dn"},
		ConfigField{Name: "bind_password"},
		ConfigField{Name: "group_base_dn"},
		ConfigField{Name: "group_filter", Default: "(member={userdn})"},
		ConfigField{Name: "username_attr", Default: "uid"},
		ConfigField{Name: "email_attr", Default: "mail"},
		ConfigField{Name: "first_name_attr", Default: "givenName"},
		ConfigField{Name: "last_name_attr", Default: "sn"},
		ConfigField{Name: "use_ssl"},
		ConfigField{Name: "use_tls"},
		ConfigField{Name: "skip_verify"},
		ConfigField{Name: "timeout_seconds"},
	)
}

// Configure validates and applies the instance settings.
func (p *LDAPProvider) Configure(cfg map[string]any) error {
	if err := validateSchema(KindLDAP, p.Schema(), cfg); err != nil {
		return err
	}

	p.configureBase(cfg)

	p.host = cfgString(cfg, "host")
	p.port = cfgInt(cfg, "port")
	p.baseDN = cfgString(cfg, "base_dn")
	p.userFilter = cfgString(cfg, "user_filter")
	p.bindDN = cfgString(cfg, "bind_dn")
	p.bindPassword = cfgString(cfg, "bind_password")
	p.groupBaseDN = cfgString(cfg, "group_base_dn")
	p.groupFilter = cfgString(cfg, "group_filter")
	p.usernameAttr = cfgString(cfg, "username_attr")
	p.emailAttr = cfgString(cfg, "email_attr")
	p.firstNameAttr = cfgString(cfg, "first_name_attr")
	p.lastNameAttr = cfgString(cfg, "last_name_attr")
	p.useSSL = cfgBool(cfg, "use_ssl")
	p.useTLS = cfgBool(cfg, "use_tls")
	p.skipVerify = cfgBool(cfg, "skip_verify")

	p.timeoutSeconds = cfgInt(cfg, "timeout_seconds")
	if p.timeoutSeconds <= 0 {
		p.timeoutSeconds = int(defaultProviderTimeout / time.Second)
	}

	p.timeout = time.Duration(p.timeoutSeconds) * time.Second

	return nil
}

// Authenticate binds with the service account, locates the user entry,
// re-binds as the user to verify the password and reconciles the entry.
func (p *LDAPProvider) Authenticate(_ context.Context, creds Credentials) (*Result, error) {
	conn, err := p.connect()
	if err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("ldap server unreachable")

		return nil, ErrProviderUnavailable
	}

	defer closeBody(conn)

	if err = p.bindService(conn); err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("ldap service bind failed")

		return nil, ErrProviderUnavailable
	}

	entry, err := p.searchUserEntry(conn, creds.Login)
	if err != nil {
		return nil, err
	}

	if err = conn.Bind(entry.DN, creds.Password); err != nil {
		log.Debug().Str("provider", p.ID()).Str("dn", entry.DN).Msg("ldap user bind rejected")

		return nil, ErrInvalidCredentials
	}

	attrs := Attributes{
		"login":      entry.GetAttributeValue(p.usernameAttr),
		"email":      entry.GetAttributeValue(p.emailAttr),
		"first_name": entry.GetAttributeValue(p.firstNameAttr),
		"last_name":  entry.GetAttributeValue(p.lastNameAttr),
	}

	// Group searches need the service account again, not the user bind.
	if err = p.bindService(conn); err != nil {
		return nil, ErrProviderUnavailable
	}

	groupDNs, err := p.userGroupDNs(conn, entry.DN)
	if err != nil {
		return nil, err
	}

	user, err := p.reconciler.Reconcile(attrs, p, ReconcileParams{SourceGroupKeys: groupDNs})
	if err != nil {
		return nil, err
	}

	return &Result{User: user}, nil
}

// Authorize is not part of the LDAP flow.
func (p *LDAPProvider) Authorize(context.Context, CallbackData) (*models.User, error) {
	return nil, ErrAuthorizeNotSupported
}

// Revoke has nothing to tear down for a directory bind.
func (p *LDAPProvider) Revoke(context.Context, string) (*Redirect, error) {
	return nil, nil
}

func (p *LDAPProvider) connect() (*ldap.Conn, error) {
	var tlsConfig *tls.Config
	if p.useSSL || p.useTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.skipVerify, //nolint:gosec // explicitly opted in via configuration
			ServerName:         p.host,
		}
	}

	conn, err := ldap.DialURL(p.LoginURL(), ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, err
	}

	if !p.useSSL && p.useTLS {
		if err = conn.StartTLS(tlsConfig); err != nil {
			closeBody(conn)

			return nil, err
		}
	}

	conn.SetTimeout(p.timeout)

	return conn, nil
}

func (p *LDAPProvider) bindService(conn *ldap.Conn) error {
	if p.bindDN == "" {
		return nil
	}

	return conn.Bind(p.bindDN, p.bindPassword)
}

// searchUserEntry looks the login up under the base DN. Zero or several
// matches both surface as invalid credentials so the response does not leak
// which logins exist in the directory.
func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, login string) (*ldap.Entry, error) {
	filter := strings.ReplaceAll(p.userFilter, "{username}", ldap.EscapeFilter(login))

	result, err := conn.Search(ldap.NewSearchRequest(
		p.baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.timeoutSeconds,
		false,
		filter,
		[]string{p.usernameAttr, p.emailAttr, p.firstNameAttr, p.lastNameAttr, "dn"},
		nil,
	))
	if err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("ldap user search failed")

		return nil, ErrProviderUnavailable
	}

	if len(result.Entries) != 1 {
		log.Debug().
			Str("provider", p.ID()).
			Int("matches", len(result.Entries)).
			Msg("ldap user search did not yield a single entry")

		return nil, ErrInvalidCredentials
	}

	return result.Entries[0], nil
}

// userGroupDNs returns the DNs of the groups the user belongs to. Without a
// configured group base the directory contributes no group memberships.
func (p *LDAPProvider) userGroupDNs(conn *ldap.Conn, userDN string) ([]string, error) {
	if p.groupBaseDN == "" {
		return nil, nil
	}

	filter := strings.ReplaceAll(p.groupFilter, "{userdn}", ldap.EscapeFilter(userDN))

	result, err := conn.Search(ldap.NewSearchRequest(
		p.groupBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.timeoutSeconds,
		false,
		filter,
		[]string{"dn"},
		nil,
	))
	if err != nil {
		log.Error().Err(err).Str("provider", p.ID()).Msg("ldap group search failed")

		return nil, ErrProviderUnavailable
	}

	groupDNs := make([]string, len(result.Entries))
	for i, entry := range result.Entries {
		groupDNs[i] = entry.DN
	}

	return groupDNs, nil
}
