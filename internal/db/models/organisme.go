package models

import (
	"time"

	"github.com/google/uuid"
)

// Organisme represents an organization users can belong to. Organizations
// form an optional tree through ParentID.
type Organisme struct {
	// ID is the unique identifier for the organization.
	ID int `gorm:"primaryKey" json:"id_organisme"`
	// UUID is the external-stable identifier of the organization.
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	// Name is the display name of the organization.
	Name string `gorm:"size:255;not null" json:"nom_organisme"`
	// ParentID is the optional parent organization.
	ParentID *int `json:"id_parent,omitempty"`
	// Parent is the associated parent organization.
	Parent *Organisme `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"-"`
	// Address is the street address.
	Address string `gorm:"size:255" json:"address,omitempty"`
	// PostalCode is the postal or zip code.
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	// City is the city name.
	City string `gorm:"size:100" json:"city,omitempty"`
	// Phone is the contact phone number.
	Phone string `gorm:"size:30" json:"phone,omitempty"`
	// Email is the contact email address.
	Email string `gorm:"size:255" json:"email,omitempty"`
	// URL is the organization web site.
	URL string `gorm:"size:255" json:"url,omitempty"`
	// AdditionalData carries free-form attributes without a dedicated column.
	AdditionalData map[string]any `gorm:"serializer:json" json:"additional_data,omitempty"`
	// CreatedAt is the timestamp when the organization was created (managed by GORM).
	CreatedAt time.Time `json:"date_insert"`
	// UpdatedAt is the timestamp when the organization was last updated (managed by GORM).
	UpdatedAt time.Time `json:"date_update"`
}

// TableName keeps the historical name of the organizations table.
func (Organisme) TableName() string {
	return "bib_organismes"
}
