// Package user provides the credential-store queries for users and groups:
// lookups by reconciliation key, creation, group membership edges and
// provider links.
package user

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/db/models"
)

var (
	// ErrUserNotFound is returned when no user matches the query.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotAGroup is returned when a membership edge targets a non-group row.
	ErrNotAGroup = errors.New("target role is not a group")
	// ErrSelfMembership is returned when a role would become member of itself.
	ErrSelfMembership = errors.New("a role can not be member of itself")
	// ErrUnknownKey is returned for a reconciliation key with no backing column.
	ErrUnknownKey = errors.New("unknown reconciliation key")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// reconciliationColumns maps the allowed reconciliation keys to columns.
// Restricting the set keeps attribute names out of SQL.
var reconciliationColumns = map[string]string{ //nolint:gochecknoglobals
	"email": "email",
	"login": "login",
	"uuid":  "uuid",
}

// GetByID retrieves a user by ID.
func GetByID(db *gorm.DB, id int) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	if err := db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

// GetByKey retrieves a user by one of the allowed reconciliation keys.
// Matching never happens on an empty value: a null-key match against an
// existing row would be a data-integrity bug.
func GetByKey(db *gorm.DB, key, value string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	column, ok := reconciliationColumns[key]
	if !ok {
		return nil, ErrUnknownKey
	}

	if value == "" {
		return nil, ErrUserNotFound
	}

	var u models.User
	if err := db.Where(column+" = ?", value).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

// GetByLogin retrieves a non-group user by login.
func GetByLogin(db *gorm.DB, login string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User

	err := db.Where("login = ? AND is_group = ?", login, false).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

// Create inserts a new user row.
func Create(db *gorm.DB, u *models.User) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Create(u).Error
}

// AddToGroup attaches a member to a group. Attaching an already present
// member is a no-op; self-membership and non-group targets are rejected.
func AddToGroup(db *gorm.DB, memberID, groupID int) error {
	if db == nil {
		return ErrDBNil
	}

	if memberID == groupID {
		return ErrSelfMembership
	}

	group, err := GetByID(db, groupID)
	if err != nil {
		return err
	}

	if !group.IsGroup {
		return ErrNotAGroup
	}

	edge := models.UserGroup{MemberID: memberID, GroupID: groupID}

	return db.Where("member_id = ? AND group_id = ?", memberID, groupID).
		FirstOrCreate(&edge).Error
}

// GroupsOf returns the groups a user is a direct member of.
func GroupsOf(db *gorm.DB, userID int) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var groups []models.User

	err := db.Table("t_roles").
		Joins("JOIN cor_roles ON cor_roles.group_id = t_roles.id").
		Where("cor_roles.member_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}

	return groups, nil
}

// EnsureProvider upserts the Provider row for a provider kind. Idempotent,
// keyed by the unique provider name.
func EnsureProvider(db *gorm.DB, name, url string) (*models.Provider, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	p := models.Provider{Name: name, URL: url}
	if err := db.Where("name = ?", name).FirstOrCreate(&p).Error; err != nil {
		return nil, err
	}

	return &p, nil
}

// LinkProvider records that a provider authenticated a user. Linking an
// already linked provider is a no-op, never a duplicate edge.
func LinkProvider(db *gorm.DB, userID, providerID int) error {
	if db == nil {
		return ErrDBNil
	}

	link := models.UserProvider{UserID: userID, ProviderID: providerID}

	return db.Where("user_id = ? AND provider_id = ?", userID, providerID).
		FirstOrCreate(&link).Error
}

// IsDuplicate reports whether err is a unique-constraint rejection. The
// store's constraint is the tie-breaker for concurrent inserts of the same
// identity, so callers translate this into a retryable error.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()

	return strings.Contains(msg, "UNIQUE constraint") || // sqlite
		strings.Contains(msg, "Duplicate entry") || // mysql
		strings.Contains(msg, "duplicate key") // postgres
}
