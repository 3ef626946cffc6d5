package permissions

import (
	"errors"

	"gorm.io/gorm"

	applicationcontroller "github.com/usershub-go/usershub/internal/db/controller/application"
	usercontroller "github.com/usershub-go/usershub/internal/db/controller/user"
)

// Resolver computes effective permission levels from grant rows. It holds
// no state beyond the database handle and an optional result cache, so one
// instance serves all requests.
type Resolver struct {
	db    *gorm.DB
	cache *Cache
}

// NewResolver creates a resolver. The cache may be nil, in which case every
// call recomputes from the store.
func NewResolver(db *gorm.DB, cache *Cache) *Resolver {
	return &Resolver{db: db, cache: cache}
}

// scopedLevel is one grant row projected to its scope and magnitude.
type scopedLevel struct {
	ApplicationID int
	Code          int
}

// Resolve computes the effective level of every action for a user within
// an application. Grants held directly and through direct group membership
// are merged by taking the maximum level per scope; any grant on the child
// application shadows the parent scope entirely, whatever the magnitudes.
// Pass a 0 parentApplicationID to skip the parent fallback.
func (r *Resolver) Resolve(userID, applicationID, parentApplicationID int) (Cruved, error) {
	if r.cache != nil {
		if cruved, ok := r.cache.Get(userID, applicationID, parentApplicationID); ok {
			return cruved, nil
		}
	}

	if err := r.checkApplication(applicationID); err != nil {
		return nil, err
	}

	if parentApplicationID != 0 {
		if err := r.checkApplication(parentApplicationID); err != nil {
			return nil, err
		}
	}

	roleIDs, err := r.actingRoles(userID)
	if err != nil {
		return nil, err
	}

	levels, err := r.grantLevels(roleIDs, applicationID, parentApplicationID)
	if err != nil {
		return nil, err
	}

	childMax, childFound := maxForScope(levels, applicationID)
	parentMax, parentFound := maxForScope(levels, parentApplicationID)

	level := NoAccess

	switch {
	case childFound:
		level = childMax
	case parentApplicationID != 0 && parentFound:
		level = parentMax
	}

	cruved := make(Cruved, len(Actions()))
	for _, action := range Actions() {
		cruved[action] = level
	}

	if r.cache != nil {
		r.cache.Set(userID, applicationID, parentApplicationID, cruved)
	}

	return cruved, nil
}

// MaxLevelProfile returns the highest profile code the user holds for one
// application, directly or through a group. No parent fallback; a user
// without any grant is at level 0.
func (r *Resolver) MaxLevelProfile(userID, applicationID int) (int, error) {
	if err := r.checkApplication(applicationID); err != nil {
		return 0, err
	}

	roleIDs, err := r.actingRoles(userID)
	if err != nil {
		return 0, err
	}

	levels, err := r.grantLevels(roleIDs, applicationID, 0)
	if err != nil {
		return 0, err
	}

	maxLevel, _ := maxForScope(levels, applicationID)

	return maxLevel, nil
}

// checkApplication rejects resolution against an application that was
// never declared.
func (r *Resolver) checkApplication(applicationID int) error {
	_, err := applicationcontroller.GetByID(r.db, applicationID)
	if errors.Is(err, applicationcontroller.ErrApplicationNotFound) {
		return &ResolutionConfigurationError{ApplicationID: applicationID}
	}

	return err
}

// actingRoles returns the user's own id plus the ids of the groups it is a
// direct member of. Membership is flattened one level only.
func (r *Resolver) actingRoles(userID int) ([]int, error) {
	groups, err := usercontroller.GroupsOf(r.db, userID)
	if err != nil {
		return nil, err
	}

	roleIDs := make([]int, 0, len(groups)+1)
	roleIDs = append(roleIDs, userID)

	for _, group := range groups {
		roleIDs = append(roleIDs, group.ID)
	}

	return roleIDs, nil
}

// grantLevels loads the profile magnitude of every grant held by the
// acting roles on the child or parent application.
func (r *Resolver) grantLevels(roleIDs []int, applicationID, parentApplicationID int) ([]scopedLevel, error) {
	applicationIDs := []int{applicationID}
	if parentApplicationID != 0 {
		applicationIDs = append(applicationIDs, parentApplicationID)
	}

	var levels []scopedLevel

	err := r.db.Table("cor_role_app_profil").
		Select("cor_role_app_profil.application_id AS application_id, t_profils.code AS code").
		Joins("JOIN t_profils ON t_profils.id = cor_role_app_profil.profile_id").
		Where("cor_role_app_profil.role_id IN ?", roleIDs).
		Where("cor_role_app_profil.application_id IN ?", applicationIDs).
		Scan(&levels).Error
	if err != nil {
		return nil, err
	}

	return levels, nil
}

// maxForScope returns the highest level among the grants of one scope and
// whether the scope holds any grant at all.
func maxForScope(levels []scopedLevel, applicationID int) (int, bool) {
	maxLevel, found := 0, false

	for _, l := range levels {
		if l.ApplicationID != applicationID {
			continue
		}

		found = true

		if l.Code > maxLevel {
			maxLevel = l.Code
		}
	}

	return maxLevel, found
}
