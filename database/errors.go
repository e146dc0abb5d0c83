package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/watershed/errors"
)

// DetailRetryable marks a DATABASE_ERROR that may succeed when retried.
const DetailRetryable = "retryable"

// IsRetryableError reports whether a database error is transient: a locked
// or busy SQLite file, or a dropped connection.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"driver: bad connection",
		"sql: database is closed",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// IsNotFoundError checks if the error is a GORM record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// FromDatabase converts a database error to an AppError. A missing record
// becomes INVALID_INPUT on resource; everything else is DATABASE_ERROR.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	if IsNotFoundError(err) {
		return apperrors.InvalidInput(resource, "not found").WithCause(err)
	}

	appErr := apperrors.DatabaseError(err).WithDetail("resource", resource)
	if IsRetryableError(err) {
		appErr = appErr.WithDetail(DetailRetryable, true)
	}
	return appErr
}
