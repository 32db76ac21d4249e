package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/william251082/fileupload/errors"
)

// IsNotFound reports whether err is GORM's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
// Requires gorm.Config.TranslateError, which Open enables.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// FromGorm maps a GORM error onto an AppError for resource/id.
func FromGorm(err error, resource, id string) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case IsNotFound(err):
		return apperrors.NotFound(resource, id).WithCause(err)
	case IsDuplicate(err):
		return apperrors.Conflict(fmt.Sprintf("A %s with these details already exists.", resource)).WithCause(err)
	}
	return apperrors.DatabaseError(err)
}
