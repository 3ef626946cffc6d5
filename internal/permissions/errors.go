package permissions

import "fmt"

// ResolutionConfigurationError reports a resolution request against an
// application that was never declared. A user without grants is a normal
// outcome, an unknown application is a caller bug.
type ResolutionConfigurationError struct {
	ApplicationID int
}

func (e *ResolutionConfigurationError) Error() string {
	return fmt.Sprintf("permissions: application %d does not exist", e.ApplicationID)
}
