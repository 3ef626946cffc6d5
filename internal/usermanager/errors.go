package usermanager

import "errors"

var (
	// ErrPasswordMismatch is returned when the password and its
	// confirmation differ.
	ErrPasswordMismatch = errors.New("password and confirmation do not match")
	// ErrPasswordTooShort is returned when the password is shorter than the
	// policy minimum.
	ErrPasswordTooShort = errors.New("password is too short")
	// ErrPasswordNeedsDigit is returned when the policy requires a digit
	// and the password has none.
	ErrPasswordNeedsDigit = errors.New("password must contain a digit")
	// ErrPasswordNeedsSpecial is returned when the policy requires a
	// special character and the password has none.
	ErrPasswordNeedsSpecial = errors.New("password must contain a special character")
	// ErrPasswordNeedsMixedCase is returned when the policy requires both
	// cases and the password has only one.
	ErrPasswordNeedsMixedCase = errors.New("password must mix upper and lower case")
	// ErrUnknownConfirmationToken is returned when no staged registration
	// matches the confirmation token.
	ErrUnknownConfirmationToken = errors.New("unknown confirmation token")
	// ErrUnknownResetToken is returned when no user matches the password
	// reset token.
	ErrUnknownResetToken = errors.New("unknown password reset token")
)
