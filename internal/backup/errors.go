package backup

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced to API callers.
const (
	CodeGistTokenNotFound = "GIST_TOKEN_NOT_FOUND"
	CodeBackupFailed      = "BACKUP_FAILED"
)

// Error kinds.
const (
	KindConfiguration = "ConfigurationError"
	KindBackupFailed  = "BackupFailedError"
)

// Error is a classified backup failure.
type Error struct {
	Code   string
	Kind   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrMissingToken is the cause attached to configuration failures.
	ErrMissingToken = errors.New("gist token is not configured")
	// ErrMigration marks a failure to migrate state that a download has
	// already written.
	ErrMigration = errors.New("migrate restored state")
)

func configurationError() error {
	return &Error{
		Code:   CodeGistTokenNotFound,
		Kind:   KindConfiguration,
		Reason: "backup credential is missing",
		Err:    ErrMissingToken,
	}
}

func backupFailed(action Action, err error) error {
	return &Error{
		Code:   CodeBackupFailed,
		Kind:   KindBackupFailed,
		Reason: fmt.Sprintf("%s failed", action),
		Err:    err,
	}
}

// CodeOf returns the stable code of a backup error, or "".
func CodeOf(err error) string {
	var backupErr *Error
	if errors.As(err, &backupErr) {
		return backupErr.Code
	}
	return ""
}
