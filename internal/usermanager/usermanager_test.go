package usermanager

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/config"
	"github.com/usershub-go/usershub/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(models.All()...)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func strictPolicy() config.PasswordPolicy {
	return config.PasswordPolicy{
		MinLength:               8,
		RequireDigit:            true,
		RequireSpecialCharacter: true,
		RequireMultipleCase:     true,
	}
}

func TestCheckPassword(t *testing.T) {
	m := NewManager(nil, strictPolicy(), 0)

	testCases := []struct {
		name          string
		password      string
		confirmation  string
		expectedError error
	}{
		{
			name:          "mismatch",
			password:      "Str0ng!pass",
			confirmation:  "different",
			expectedError: ErrPasswordMismatch,
		},
		{
			name:          "too short",
			password:      "S0r!t",
			confirmation:  "S0r!t",
			expectedError: ErrPasswordTooShort,
		},
		{
			name:          "missing digit",
			password:      "Strong!pass",
			confirmation:  "Strong!pass",
			expectedError: ErrPasswordNeedsDigit,
		},
		{
			name:          "missing special character",
			password:      "Str0ngpass",
			confirmation:  "Str0ngpass",
			expectedError: ErrPasswordNeedsSpecial,
		},
		{
			name:          "single case",
			password:      "str0ng!pass",
			confirmation:  "str0ng!pass",
			expectedError: ErrPasswordNeedsMixedCase,
		},
		{
			name:         "acceptable",
			password:     "Str0ng!pass",
			confirmation: "Str0ng!pass",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := m.CheckPassword(tc.password, tc.confirmation)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// A lax policy only checks length and the confirmation.
func TestCheckPasswordLaxPolicy(t *testing.T) {
	m := NewManager(nil, config.PasswordPolicy{MinLength: 6}, 0)

	require.NoError(t, m.CheckPassword("simple", "simple"))
	require.ErrorIs(t, m.CheckPassword("short", "short"), ErrPasswordTooShort)
}

func TestCreateTempUser(t *testing.T) {
	db := setupTestDB(t)
	m := NewManager(db, config.PasswordPolicy{MinLength: 6}, 0)

	reg := Registration{
		Login:                "alice",
		FirstName:            "Alice",
		LastName:             "Liddell",
		Email:                "alice@example.org",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	}

	temp, err := m.CreateTempUser(reg)
	require.NoError(t, err)
	assert.NotEmpty(t, temp.ConfirmationToken)
	assert.NotEmpty(t, temp.PasswordHash)
	assert.NotEqual(t, "secret1", temp.PasswordHash)

	// Re-registering replaces the staged row instead of accumulating.
	again, err := m.CreateTempUser(reg)
	require.NoError(t, err)
	assert.NotEqual(t, temp.ConfirmationToken, again.ConfirmationToken)

	var count int64
	db.Model(&models.TempUser{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateTempUserSweepsExpired(t *testing.T) {
	db := setupTestDB(t)
	m := NewManager(db, config.PasswordPolicy{MinLength: 6}, 0)

	stale := models.TempUser{
		ConfirmationToken: "stale-token",
		Login:             "oldtimer",
		Email:             "oldtimer@example.org",
		CreatedAt:         time.Now().Add(-8 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)

	_, err := m.CreateTempUser(Registration{
		Login:                "alice",
		Email:                "alice@example.org",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	})
	require.NoError(t, err)

	var count int64
	db.Model(&models.TempUser{}).Where("login = ?", "oldtimer").Count(&count)
	assert.Zero(t, count)
}

func TestValidTempUser(t *testing.T) {
	db := setupTestDB(t)

	newcomers := models.User{UUID: uuid.New(), IsGroup: true, LastName: "Newcomers", Email: "newcomers@groups.local"}
	require.NoError(t, db.Create(&newcomers).Error)

	m := NewManager(db, config.PasswordPolicy{MinLength: 6}, newcomers.ID)

	temp, err := m.CreateTempUser(Registration{
		Login:                "alice",
		FirstName:            "Alice",
		LastName:             "Liddell",
		Email:                "alice@example.org",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	})
	require.NoError(t, err)

	user, err := m.ValidTempUser(temp.ConfirmationToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Login)
	assert.True(t, user.Active)
	assert.True(t, user.VerifyPassword("secret1"))

	// The promoted account joined the default group.
	var edges []models.UserGroup
	require.NoError(t, db.Where("member_id = ?", user.ID).Find(&edges).Error)
	require.Len(t, edges, 1)
	assert.Equal(t, newcomers.ID, edges[0].GroupID)

	// The staging row is gone; the token cannot be replayed.
	var count int64
	db.Model(&models.TempUser{}).Count(&count)
	assert.Zero(t, count)

	_, err = m.ValidTempUser(temp.ConfirmationToken)
	require.ErrorIs(t, err, ErrUnknownConfirmationToken)
}

func TestValidTempUserUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	m := NewManager(db, config.PasswordPolicy{MinLength: 6}, 0)

	_, err := m.ValidTempUser("never-issued")
	require.ErrorIs(t, err, ErrUnknownConfirmationToken)
}

func TestCreateUserToken(t *testing.T) {
	db := setupTestDB(t)
	m := NewManager(db, config.PasswordPolicy{MinLength: 6}, 0)

	alice := models.User{UUID: uuid.New(), Login: "alice", Email: "alice@example.org", Active: true}
	require.NoError(t, db.Create(&alice).Error)

	first, err := m.CreateUserToken(alice.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// A new token supersedes the previous one.
	second, err := m.CreateUserToken(alice.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	var count int64
	db.Model(&models.UserToken{}).Where("user_id = ?", alice.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	m := NewManager(db, config.PasswordPolicy{MinLength: 6}, 0)

	alice := models.User{
		UUID:         uuid.New(),
		Login:        "alice",
		Email:        "alice@example.org",
		PasswordHash: models.HashPassword("oldpass"),
		Active:       true,
	}
	require.NoError(t, db.Create(&alice).Error)

	reset, err := m.CreateUserToken(alice.ID)
	require.NoError(t, err)

	// Policy failures leave the token valid for a retry.
	_, err = m.ChangePassword(reset, "short", "short")
	require.ErrorIs(t, err, ErrPasswordTooShort)

	user, err := m.ChangePassword(reset, "newpass1", "newpass1")
	require.NoError(t, err)
	assert.True(t, user.VerifyPassword("newpass1"))
	assert.False(t, user.VerifyPassword("oldpass"))

	// The token is consumed.
	_, err = m.ChangePassword(reset, "another1", "another1")
	require.ErrorIs(t, err, ErrUnknownResetToken)
}
