// Package models defines the GORM models of the credential store: users and
// groups (one self-referential table), organizations, applications, profiles,
// the association tables between them, identity providers, and the staging
// entities used by registration and password-reset flows.
package models

// All returns every model in migration order, parents before the association
// tables referencing them.
func All() []any {
	return []any{
		&Organisme{},
		&User{},
		&UserGroup{},
		&Provider{},
		&UserProvider{},
		&Application{},
		&Profile{},
		&ProfileApplication{},
		&UserApplicationRight{},
		&TempUser{},
		&UserToken{},
	}
}
