package models

// UserApplicationRight is a directly assigned grant: a role (user or group)
// holds a profile for an application. The (role, profile, application) triple
// is the primary key; a role holds at most one profile per application
// directly, and overlapping grants through different groups are merged at
// resolution time, never stored pre-merged.
type UserApplicationRight struct {
	// RoleID is the ID of the user or group holding the grant.
	RoleID int `gorm:"primaryKey;column:role_id" json:"id_role"`
	// ProfileID is the ID of the granted profile.
	ProfileID int `gorm:"primaryKey;column:profile_id" json:"id_profil"`
	// ApplicationID is the ID of the application the grant is scoped to.
	ApplicationID int `gorm:"primaryKey;column:application_id" json:"id_application"`
	// Role is the associated user or group. Grants are removed when the
	// role is deleted (CASCADE).
	Role User `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
	// Profile is the associated profile.
	Profile Profile `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"-"`
	// Application is the associated application.
	Application Application `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName keeps the historical name of the role/application/profile table.
func (UserApplicationRight) TableName() string {
	return "cor_role_app_profil"
}
