package models

import "time"

// UserGroup represents the membership edge between a member user and a group
// user. Both sides are rows of the same t_roles table; the group side must
// have IsGroup set. Memberships are flattened a single level when computing
// acting roles, so a group being member of another group carries no extra
// rights.
type UserGroup struct {
	// MemberID is the ID of the member user.
	MemberID int `gorm:"primaryKey;column:member_id" json:"id_role"`
	// GroupID is the ID of the group user.
	GroupID int `gorm:"primaryKey;column:group_id" json:"id_group"`
	// Member is the associated member user. Memberships are removed
	// when the member is deleted (CASCADE).
	Member User `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
	// Group is the associated group user. Memberships are removed
	// when the group is deleted (CASCADE).
	Group User `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time `json:"-"`
}

// TableName keeps the historical name of the role/group association table.
func (UserGroup) TableName() string {
	return "cor_roles"
}
