// Package permissions computes effective access levels for a user within
// an application. Levels come from profile grants held directly or through
// group membership, with a child application taking precedence over its
// parent.
package permissions

// Action is one of the six canonical permission actions.
type Action string

// The six actions form a closed set; the resolver always returns a level
// for every one of them.
const (
	ActionCreate Action = "C"
	ActionRead   Action = "R"
	ActionUpdate Action = "U"
	ActionView   Action = "V"
	ActionExport Action = "E"
	ActionDelete Action = "D"
)

// Actions lists the closed action set in canonical order.
func Actions() [6]Action {
	return [6]Action{ActionCreate, ActionRead, ActionUpdate, ActionView, ActionExport, ActionDelete}
}

// NoAccess is the level of an action without any grant.
const NoAccess = 0

// Cruved maps every action to its effective level. All six keys are always
// present; absence of a grant is the explicit NoAccess level, so callers
// never branch on key presence.
type Cruved map[Action]int
