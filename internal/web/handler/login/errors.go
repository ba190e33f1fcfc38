package login

import "github.com/PrepDesk/PrepDesk/internal/apperror"

const (
	// CodeInvalidCredentials is returned for an unknown user or a wrong password.
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	// CodeAccountDisabled is returned when a suspended or deleted account logs in.
	CodeAccountDisabled = "ACCOUNT_DISABLED"
)

var (
	// ErrInvalidCredentials is returned when the provided username and/or password are not valid.
	ErrInvalidCredentials = apperror.New(apperror.ErrUnauthenticated, CodeInvalidCredentials,
		"invalid username or password")

	// ErrAccountDisabled is returned when the account may not log in.
	ErrAccountDisabled = apperror.New(apperror.ErrForbidden, CodeAccountDisabled, "account is disabled")
)
