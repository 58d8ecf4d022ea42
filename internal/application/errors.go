package application

import "errors"

var (
	// ErrRecordNotFound covers both a missing record and one owned by
	// another user.
	ErrRecordNotFound = errors.New("bmi record not found")
	// ErrNoRecords means the user has not submitted anything yet.
	ErrNoRecords = errors.New("no bmi records")
	// ErrExportUnavailable is returned when no object storage is configured.
	ErrExportUnavailable = errors.New("export storage not configured")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)
