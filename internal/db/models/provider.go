package models

import "time"

// Provider represents an identity source kind known to the system: the local
// password store, a CAS server, an OpenID Connect realm or a remote hub.
// Rows are created lazily the first time an instance of a kind is registered
// with the auth manager and are not deleted during normal operation.
type Provider struct {
	// ID is the unique identifier for the provider.
	ID int `gorm:"primaryKey" json:"id"`
	// Name is the unique provider kind name used as the lookup key.
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	// URL is the external login page of the provider, if any.
	URL string `gorm:"size:255" json:"url"`
	// CreatedAt is the timestamp when the provider row was created (managed by GORM).
	CreatedAt time.Time `json:"-"`
}

// TableName keeps the historical name of the providers table.
func (Provider) TableName() string {
	return "t_providers"
}

// UserProvider records that a provider has successfully authenticated a user
// at least once. The association is append-only in normal flow.
type UserProvider struct {
	// UserID is the ID of the authenticated user.
	UserID int `gorm:"primaryKey;column:user_id"`
	// ProviderID is the ID of the provider that authenticated the user.
	ProviderID int `gorm:"primaryKey;column:provider_id"`
	// User is the associated user. Links are removed when the user is
	// deleted (CASCADE).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Provider is the associated provider.
	Provider Provider `gorm:"foreignKey:ProviderID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp of the first successful authentication.
	CreatedAt time.Time
}

// TableName keeps the historical name of the role/provider association table.
func (UserProvider) TableName() string {
	return "cor_role_provider"
}
