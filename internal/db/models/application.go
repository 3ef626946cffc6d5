package models

// Application represents an application or module access rights are scoped
// to. Applications form a tree through ParentID; permission resolution falls
// back from a child application to its parent.
type Application struct {
	// ID is the unique identifier for the application.
	ID int `gorm:"primaryKey" json:"id_application"`
	// Code is the unique application code used for permission lookups.
	Code string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	// Name is the display name of the application.
	Name string `gorm:"size:255;not null" json:"nom_application"`
	// Description is a human-readable description of the application.
	Description string `gorm:"size:255" json:"desc_application,omitempty"`
	// ParentID is the optional parent application.
	ParentID *int `json:"id_parent,omitempty"`
	// Parent is the associated parent application.
	Parent *Application `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName keeps the historical name of the applications table.
func (Application) TableName() string {
	return "t_applications"
}
