package authz

import "errors"

var (
	// ErrAuthorizationDenied is returned by Require when no assignment satisfies the check.
	ErrAuthorizationDenied = errors.New("authz: insufficient permissions")

	// ErrStoreUnavailable means assignments or team ownership could not be loaded.
	ErrStoreUnavailable = errors.New("authz: assignment store unavailable")

	ErrInvalidAssignment = errors.New("authz: invalid assignment")
	ErrUnknownRole       = errors.New("authz: unknown role")
	ErrNotFound          = errors.New("authz: not found")
	ErrConflict          = errors.New("authz: conflict")
)
