package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// User represents a role in the system: either a person or a group.
// Groups are stored in the same table with IsGroup set, and users are
// attached to them through UserGroup membership edges.
type User struct {
	// ID is the unique identifier for the user, assigned by the store.
	ID int `gorm:"primaryKey" json:"id"`
	// UUID is the external-stable identifier, kept over renames and merges.
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	// IsGroup marks this row as a group rather than a person.
	IsGroup bool `gorm:"not null;default:false" json:"is_group"`
	// Login is the identifier used for direct (local) authentication.
	Login string `gorm:"size:100;index" json:"login"`
	// FirstName is the user's first or given name. Empty for groups.
	FirstName string `gorm:"size:100" json:"first_name"`
	// LastName is the user's last name, or the group's display name.
	LastName string `gorm:"size:100" json:"last_name"`
	// Email is the user's email address, unique across all users and the
	// default reconciliation key for external identities.
	Email string `gorm:"size:255;uniqueIndex" json:"email"`
	// PasswordHash is the Argon2id digest for local authentication.
	// It is owned by this entity and never serialized.
	PasswordHash string `gorm:"size:255" json:"-"`
	// Active indicates whether the account can log in.
	Active bool `gorm:"not null;default:true" json:"active"`
	// OrganismeID is the optional organization this user belongs to.
	OrganismeID *int `json:"id_organisme,omitempty"`
	// Organisme is the associated organization.
	Organisme *Organisme `gorm:"foreignKey:OrganismeID;constraint:OnDelete:SET NULL" json:"-"`
	// AdditionalData carries free-form attributes handed back by identity
	// providers that have no dedicated column.
	AdditionalData map[string]any `gorm:"serializer:json" json:"additional_data,omitempty"`
	// Groups are the groups this user is a direct member of.
	Groups []User `gorm:"many2many:cor_roles;joinForeignKey:MemberID;joinReferences:GroupID" json:"-"`
	// Providers are the identity providers that have authenticated this user.
	Providers []Provider `gorm:"many2many:cor_role_provider" json:"-"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"date_insert"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"date_update"`
}

// TableName keeps the historical name of the users/roles table.
func (User) TableName() string {
	return "t_roles"
}

// DisplayName returns "FirstName LastName" for persons and the group
// name for groups.
func (u *User) DisplayName() string {
	if u.IsGroup || u.FirstName == "" {
		return u.LastName
	}

	return u.FirstName + " " + u.LastName
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating local user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hash.
// Returns false for group rows and for users without a stored password, so a
// group can never be logged into directly even if a digest was imported.
func (u *User) VerifyPassword(password string) bool {
	if u.IsGroup || u.PasswordHash == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
