package models

import "time"

// TempUser is the staging row for self-registration. It holds the same
// identity attributes as User plus a confirmation token, and is deleted once
// promoted to a User or expired by age.
type TempUser struct {
	// ID is the unique identifier for the staging row.
	ID int `gorm:"primaryKey" json:"id"`
	// ConfirmationToken is the single-use token sent to the user to
	// confirm the registration.
	ConfirmationToken string `gorm:"size:64;uniqueIndex;not null" json:"-"`
	// Login is the requested login identifier.
	Login string `gorm:"size:100;not null" json:"login"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100" json:"first_name"`
	// LastName is the user's last name.
	LastName string `gorm:"size:100" json:"last_name"`
	// Email is the user's email address.
	Email string `gorm:"size:255;not null" json:"email"`
	// PasswordHash is the Argon2id digest of the requested password.
	PasswordHash string `gorm:"size:255" json:"-"`
	// OrganismeID is the optional organization the user registered for.
	OrganismeID *int `json:"id_organisme,omitempty"`
	// AdditionalData carries free-form registration attributes.
	AdditionalData map[string]any `gorm:"serializer:json" json:"additional_data,omitempty"`
	// CreatedAt is the registration timestamp, used for age-based cleanup.
	CreatedAt time.Time `json:"date_insert"`
}

// TableName keeps the historical name of the temporary users table.
func (TempUser) TableName() string {
	return "temp_users"
}
