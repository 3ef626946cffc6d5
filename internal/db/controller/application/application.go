// Package application provides the credential-store queries for the
// application tree and the profiles available per application.
package application

import (
	"errors"

	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/db/models"
)

var (
	// ErrApplicationNotFound is returned when no application matches the query.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetByID retrieves an application by ID.
func GetByID(db *gorm.DB, id int) (*models.Application, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var app models.Application
	if err := db.First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}

		return nil, err
	}

	return &app, nil
}

// GetByCode retrieves an application by its unique code.
func GetByCode(db *gorm.DB, code string) (*models.Application, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var app models.Application
	if err := db.Where("code = ?", code).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}

		return nil, err
	}

	return &app, nil
}

// ProfilesFor returns the profiles available for an application.
func ProfilesFor(db *gorm.DB, applicationID int) ([]models.Profile, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var profiles []models.Profile

	err := db.Table("t_profils").
		Joins("JOIN cor_profil_for_app ON cor_profil_for_app.profile_id = t_profils.id").
		Where("cor_profil_for_app.application_id = ?", applicationID).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	return profiles, nil
}
