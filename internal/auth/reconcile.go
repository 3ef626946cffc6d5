package auth

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	usercontroller "github.com/usershub-go/usershub/internal/db/controller/user"
	"github.com/usershub-go/usershub/internal/db/models"
)

// DefaultReconciliationKey is the attribute matched against the local store
// when the caller does not request another key.
const DefaultReconciliationKey = "email"

// Attributes are the identity attributes handed back by a provider after a
// successful external authentication. Known keys (email, login, first_name,
// last_name, id_organisme, uuid) map to User columns; everything else lands
// in the user's additional-data map.
type Attributes map[string]any

// knownAttributes are the keys consumed into dedicated User columns.
var knownAttributes = map[string]struct{}{ //nolint:gochecknoglobals
	"email": {}, "login": {}, "first_name": {}, "last_name": {},
	"id_organisme": {}, "uuid": {},
}

// ReconcileParams tunes a single reconciliation call.
type ReconcileParams struct {
	// Key is the attribute matched against the store. Defaults to email.
	Key string
	// SourceGroupKeys are the provider-side group names of the identity,
	// resolved through the provider's group mapping for new users.
	SourceGroupKeys []string
}

// Reconciler turns provider-supplied identity attributes into a persisted
// canonical user. The writes for a new user run in one transaction so a
// failed step leaves no partial rows behind.
type Reconciler struct {
	db             *gorm.DB
	defaultGroupID int
}

// NewReconciler creates a reconciler. defaultGroupID, when non-zero, is
// attached to new users whose provider supplies no group information.
func NewReconciler(db *gorm.DB, defaultGroupID int) *Reconciler {
	return &Reconciler{db: db, defaultGroupID: defaultGroupID}
}

// Reconcile finds or creates the canonical user for the given attributes.
//
// An existing user matched on the reconciliation key is returned unchanged
// apart from the idempotent provider link: repeated external logins must not
// clobber locally curated profile data. A new user is built from the
// attributes, attached to its groups and persisted; a concurrent insert of
// the same identity loses against the unique email constraint and surfaces
// as the retryable ErrDuplicateIdentity.
func (r *Reconciler) Reconcile(attrs Attributes, p Authentication, params ReconcileParams) (*models.User, error) {
	key := params.Key
	if key == "" {
		key = DefaultReconciliationKey
	}

	value := attrString(attrs, key)
	if value == "" {
		return nil, &MissingAttributeError{Key: key}
	}

	provider, err := usercontroller.EnsureProvider(r.db, p.Kind(), p.LoginURL())
	if err != nil {
		return nil, err
	}

	existing, err := usercontroller.GetByKey(r.db, key, value)

	switch {
	case err == nil:
		if errLink := usercontroller.LinkProvider(r.db, existing.ID, provider.ID); errLink != nil {
			return nil, errLink
		}

		return existing, nil
	case !errors.Is(err, usercontroller.ErrUserNotFound):
		return nil, err
	}

	// Resolve group memberships before any write so an unmappable group
	// leaves no partial rows behind.
	groupIDs, err := r.resolveGroups(p, params.SourceGroupKeys)
	if err != nil {
		return nil, err
	}

	newUser := r.buildUser(attrs)

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if errTx := usercontroller.Create(tx, newUser); errTx != nil {
			return errTx
		}

		for _, groupID := range groupIDs {
			if errTx := usercontroller.AddToGroup(tx, newUser.ID, groupID); errTx != nil {
				return errTx
			}
		}

		return usercontroller.LinkProvider(tx, newUser.ID, provider.ID)
	})
	if err != nil {
		if usercontroller.IsDuplicate(err) {
			return nil, ErrDuplicateIdentity
		}

		return nil, err
	}

	log.Info().
		Str("provider", p.ID()).
		Int("id_role", newUser.ID).
		Msg("created user from external identity")

	return newUser, nil
}

// resolveGroups applies the group assignment rules for a new user: mapped
// source groups when the provider has a mapping and the caller supplied
// keys, the process-wide default group otherwise, or no groups at all.
// A supplied key absent from the mapping fails loud.
func (r *Reconciler) resolveGroups(p Authentication, sourceKeys []string) ([]int, error) {
	mapping := p.GroupMapping()

	if len(mapping) > 0 && len(sourceKeys) > 0 {
		seen := make(map[int]struct{}, len(sourceKeys))
		out := make([]int, 0, len(sourceKeys))

		for _, key := range sourceKeys {
			id, ok := mapping[key]
			if !ok {
				return nil, &UnmappedGroupError{Key: key}
			}

			if _, dup := seen[id]; dup {
				continue
			}

			seen[id] = struct{}{}
			out = append(out, id)
		}

		return out, nil
	}

	if r.defaultGroupID != 0 {
		return []int{r.defaultGroupID}, nil
	}

	return nil, nil
}

// buildUser maps attributes onto a new User row. Unknown keys are kept in
// the additional-data map rather than dropped.
func (r *Reconciler) buildUser(attrs Attributes) *models.User {
	u := &models.User{
		UUID:      uuid.New(),
		Email:     attrString(attrs, "email"),
		Login:     attrString(attrs, "login"),
		FirstName: attrString(attrs, "first_name"),
		LastName:  attrString(attrs, "last_name"),
		Active:    true,
	}

	if raw := attrString(attrs, "uuid"); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			u.UUID = parsed
		}
	}

	if id := attrInt(attrs, "id_organisme"); id != 0 {
		u.OrganismeID = &id
	}

	extra := make(map[string]any)

	for k, v := range attrs {
		if _, known := knownAttributes[k]; !known {
			extra[k] = v
		}
	}

	if len(extra) > 0 {
		u.AdditionalData = extra
	}

	return u
}

func attrString(attrs Attributes, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}

	return ""
}

func attrInt(attrs Attributes, key string) int {
	switch v := attrs[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
