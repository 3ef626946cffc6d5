// Package usermanager covers the self-service account flows: staged
// registration with email confirmation, password reset tokens and the
// password policy both flows enforce.
package usermanager

import (
	"errors"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/config"
	usercontroller "github.com/usershub-go/usershub/internal/db/controller/user"
	"github.com/usershub-go/usershub/internal/db/models"
	"github.com/usershub-go/usershub/internal/uniuri"
)

// tempUserTTL is how long a staged registration stays valid without being
// confirmed.
const tempUserTTL = 7 * 24 * time.Hour

// Manager runs the self-service account flows.
type Manager struct {
	db             *gorm.DB
	policy         config.PasswordPolicy
	defaultGroupID int
}

// NewManager creates a user manager. defaultGroupID, when non-zero, is the
// group attached to accounts promoted from a confirmed registration.
func NewManager(db *gorm.DB, policy config.PasswordPolicy, defaultGroupID int) *Manager {
	return &Manager{db: db, policy: policy, defaultGroupID: defaultGroupID}
}

// Registration is a self-registration request.
type Registration struct {
	Login                string
	FirstName            string
	LastName             string
	Email                string
	Password             string
	PasswordConfirmation string
	OrganismeID          *int
	AdditionalData       map[string]any
}

// CheckPassword validates a password choice against the policy and its
// confirmation.
func (m *Manager) CheckPassword(password, confirmation string) error {
	if password != confirmation {
		return ErrPasswordMismatch
	}

	if len(password) < m.policy.MinLength {
		return ErrPasswordTooShort
	}

	var hasDigit, hasSpecial, hasUpper, hasLower bool

	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if m.policy.RequireDigit && !hasDigit {
		return ErrPasswordNeedsDigit
	}

	if m.policy.RequireSpecialCharacter && !hasSpecial {
		return ErrPasswordNeedsSpecial
	}

	if m.policy.RequireMultipleCase && (!hasUpper || !hasLower) {
		return ErrPasswordNeedsMixedCase
	}

	return nil
}

// CreateTempUser stages a registration. An earlier staged registration for
// the same login or email is replaced, and staged rows past their TTL are
// swept on the way.
func (m *Manager) CreateTempUser(reg Registration) (*models.TempUser, error) {
	if err := m.CheckPassword(reg.Password, reg.PasswordConfirmation); err != nil {
		return nil, err
	}

	temp := models.TempUser{
		ConfirmationToken: uniuri.NewLen(uniuri.TokenLen),
		Login:             reg.Login,
		FirstName:         reg.FirstName,
		LastName:          reg.LastName,
		Email:             reg.Email,
		PasswordHash:      models.HashPassword(reg.Password),
		OrganismeID:       reg.OrganismeID,
		AdditionalData:    reg.AdditionalData,
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		deadline := time.Now().Add(-tempUserTTL)
		if err := tx.Where("created_at < ?", deadline).Delete(&models.TempUser{}).Error; err != nil {
			return err
		}

		if err := tx.Where("login = ? OR email = ?", reg.Login, reg.Email).
			Delete(&models.TempUser{}).Error; err != nil {
			return err
		}

		return tx.Create(&temp).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("login", temp.Login).Msg("registration staged")

	return &temp, nil
}

// ValidTempUser promotes a confirmed registration to a full user and
// removes the staging row. The promotion is transactional so a failed
// group attachment leaves the registration intact.
func (m *Manager) ValidTempUser(confirmationToken string) (*models.User, error) {
	var temp models.TempUser

	err := m.db.Where("confirmation_token = ?", confirmationToken).First(&temp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownConfirmationToken
	}

	if err != nil {
		return nil, err
	}

	user := models.User{
		UUID:           uuid.New(),
		Login:          temp.Login,
		FirstName:      temp.FirstName,
		LastName:       temp.LastName,
		Email:          temp.Email,
		PasswordHash:   temp.PasswordHash,
		Active:         true,
		OrganismeID:    temp.OrganismeID,
		AdditionalData: temp.AdditionalData,
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := usercontroller.Create(tx, &user); err != nil {
			return err
		}

		if m.defaultGroupID != 0 {
			if err := usercontroller.AddToGroup(tx, user.ID, m.defaultGroupID); err != nil {
				return err
			}
		}

		return tx.Delete(&temp).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("id_role", user.ID).Str("login", user.Login).Msg("registration confirmed")

	return &user, nil
}

// CreateUserToken issues a password reset token for a user, superseding
// any earlier one.
func (m *Manager) CreateUserToken(userID int) (string, error) {
	if _, err := usercontroller.GetByID(m.db, userID); err != nil {
		return "", err
	}

	token := models.UserToken{
		UserID: userID,
		Token:  uniuri.NewLen(uniuri.TokenLen),
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserToken{}).Error; err != nil {
			return err
		}

		return tx.Create(&token).Error
	})
	if err != nil {
		return "", err
	}

	return token.Token, nil
}

// ChangePassword consumes a reset token and stores the new password
// digest.
func (m *Manager) ChangePassword(resetToken, password, confirmation string) (*models.User, error) {
	if err := m.CheckPassword(password, confirmation); err != nil {
		return nil, err
	}

	var token models.UserToken

	err := m.db.Where("token = ?", resetToken).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownResetToken
	}

	if err != nil {
		return nil, err
	}

	user, err := usercontroller.GetByID(m.db, token.UserID)
	if err != nil {
		return nil, err
	}

	err = m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("password_hash", models.HashPassword(password)).Error; err != nil {
			return err
		}

		return tx.Delete(&token).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("id_role", user.ID).Msg("password changed")

	return user, nil
}
