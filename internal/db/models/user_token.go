package models

import "time"

// UserToken is the one-shot token used for password-reset and account
// confirmation flows. A user has at most one live token: issuing a new one
// replaces the previous row, and consumption deletes it.
type UserToken struct {
	// UserID is the ID of the user the token was issued for.
	UserID int `gorm:"primaryKey;column:user_id"`
	// Token is the opaque single-use token value.
	Token string `gorm:"size:64;uniqueIndex;not null"`
	// User is the associated user. Tokens are removed when the user is
	// deleted (CASCADE).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the token was issued.
	CreatedAt time.Time
}

// TableName keeps the historical name of the role/token table.
func (UserToken) TableName() string {
	return "cor_role_token"
}
