package daemon

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/config"
	"github.com/usershub-go/usershub/internal/db/models"
)

// profileSeeds are the standard permission levels, created once on an
// empty store.
var profileSeeds = []models.Profile{ //nolint:gochecknoglobals
	{Code: 0, Name: "Aucun", Description: "no access"},
	{Code: 1, Name: "Lecteur", Description: "read-only access"},
	{Code: 2, Name: "Rédacteur", Description: "read and write on own data"},
	{Code: 3, Name: "Référent", Description: "read and write on group data"},
	{Code: 4, Name: "Modérateur", Description: "read and write on all data"},
	{Code: 5, Name: "Validateur", Description: "moderation and validation"},
	{Code: 6, Name: "Administrateur", Description: "full administration"},
}

// seed creates the standard profiles and a default admin account on an
// empty store.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.Profile{}).Count(&count)

	if count == 0 {
		for i := range profileSeeds {
			if err := db.Create(&profileSeeds[i]).Error; err != nil {
				log.Fatal().Err(err).Msg("failed to seed profiles")
			}
		}
	}

	db.Model(&models.User{}).Count(&count)

	if count == 0 {
		admin := models.User{
			UUID:         uuid.New(),
			Login:        "admin",
			LastName:     "Administrateur",
			Email:        "admin@localhost",
			PasswordHash: models.HashPassword("admin"),
			Active:       true,
		}

		if err := db.Create(&admin).Error; err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin user")
		}

		log.Warn().Msg("seeded default admin account, change its password")
	}
}
