package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when a login/password pair cannot be
	// authenticated. Unknown user and wrong password both surface this error
	// so callers cannot enumerate accounts; the distinct cause is logged.
	ErrInvalidCredentials = errors.New("invalid login or password")

	// ErrProviderUnavailable is returned when an external identity provider
	// cannot be reached or times out. It is never folded into
	// ErrInvalidCredentials.
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// ErrDuplicateProvider is returned when registering a provider instance
	// under an id_provider that is already taken.
	ErrDuplicateProvider = errors.New("provider id already registered")

	// ErrUnknownProvider is returned when looking up an id_provider that was
	// never registered.
	ErrUnknownProvider = errors.New("unknown provider id")

	// ErrUnknownProviderKind is returned when a configuration entry names a
	// provider kind absent from the kind registry.
	ErrUnknownProviderKind = errors.New("unknown provider kind")

	// ErrDuplicateIdentity is returned when two concurrent reconciliations
	// race on the same new identity and the unique email constraint rejects
	// the loser. The operation is safe to retry.
	ErrDuplicateIdentity = errors.New("identity already exists")

	// ErrAuthorizeNotSupported is returned by synchronous credential
	// providers, which have no redirect flow to complete.
	ErrAuthorizeNotSupported = errors.New("provider has no authorization callback")

	// ErrUserInactive is returned when the authenticated account is disabled.
	ErrUserInactive = errors.New("user account is disabled")
)

// ConfigurationError reports the first missing required key of a provider
// instance configuration.
type ConfigurationError struct {
	Provider string
	Key      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %q configuration is missing required key %q", e.Provider, e.Key)
}

// MissingAttributeError reports a reconciliation key absent or empty in the
// attributes handed back by a provider.
type MissingAttributeError struct {
	Key string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("reconciliation attribute %q is missing or empty", e.Key)
}

// UnmappedGroupError reports a source group key the provider's group mapping
// does not know. The user is not admitted with a silently dropped group.
type UnmappedGroupError struct {
	Key string
}

func (e *UnmappedGroupError) Error() string {
	return fmt.Sprintf("source group %q has no entry in the provider group mapping", e.Key)
}
