package auth

import (
	"errors"
	"strings"

	"github.com/PrepDesk/PrepDesk/internal/apperror"
)

var (
	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAccountDisabled is returned when a suspended or deleted account tries to log in.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrUserNameExists is returned when creating a user whose username is taken.
	ErrUserNameExists = errors.New("user with username already exists")
)

// Reason tells the caller which gate rejected the principal.
type Reason string

const (
	// ReasonUnauthenticated means no principal was attached to the request.
	ReasonUnauthenticated Reason = "unauthenticated"
	// ReasonAccountSuspended means the account status is suspended.
	ReasonAccountSuspended Reason = "account_suspended"
	// ReasonAccountDeleted means the account status is deleted.
	ReasonAccountDeleted Reason = "account_deleted"
	// ReasonEmailUnverified means the route requires a verified email address.
	ReasonEmailUnverified Reason = "email_unverified"
	// ReasonMissingRole means none of the required roles is held.
	ReasonMissingRole Reason = "missing_role"
	// ReasonMissingPermission means none of the required permissions is held.
	ReasonMissingPermission Reason = "missing_permission"
)

// ForbiddenError is returned by Authorize. It matches apperror.ErrForbidden.
type ForbiddenError struct {
	Reason   Reason
	Required []string
}

func (e *ForbiddenError) Error() string {
	if len(e.Required) == 0 {
		return "forbidden: " + string(e.Reason)
	}

	return "forbidden: " + string(e.Reason) + " (" + strings.Join(e.Required, ", ") + ")"
}

// Unwrap makes errors.Is(err, apperror.ErrForbidden) hold.
func (e *ForbiddenError) Unwrap() error {
	return apperror.ErrForbidden
}

// AsForbidden returns the ForbiddenError wrapped in err, if any.
func AsForbidden(err error) (*ForbiddenError, bool) {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe, true
	}

	return nil, false
}
