package models

// Profile represents a named permission level. Its Code is the numeric
// magnitude used when resolving effective access levels.
type Profile struct {
	// ID is the unique identifier for the profile.
	ID int `gorm:"primaryKey" json:"id_profil"`
	// Code is the numeric permission level this profile grants.
	Code int `gorm:"not null" json:"code_profil"`
	// Name is the display name of the profile.
	Name string `gorm:"size:100;not null" json:"nom_profil"`
	// Description is a human-readable description of the profile.
	Description string `gorm:"size:255" json:"desc_profil,omitempty"`
}

// TableName keeps the historical name of the profiles table.
func (Profile) TableName() string {
	return "t_profils"
}

// ProfileApplication marks a profile as available for an application.
type ProfileApplication struct {
	// ProfileID is the ID of the available profile.
	ProfileID int `gorm:"primaryKey;column:profile_id"`
	// ApplicationID is the ID of the application the profile is available for.
	ApplicationID int `gorm:"primaryKey;column:application_id"`
	// Profile is the associated profile.
	Profile Profile `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	// Application is the associated application.
	Application Application `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the historical name of the profile/application table.
func (ProfileApplication) TableName() string {
	return "cor_profil_for_app"
}
