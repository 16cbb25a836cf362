package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is a unique constraint failure on
// either supported driver. When constraint is provided, the error text must
// also mention it (an index or column name). A bare gorm.ErrDuplicatedKey
// carries no constraint text, so it only matches an empty constraint.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	matched := errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !matched {
		return false
	}
	if constraint == "" {
		return true
	}
	return strings.Contains(msg, constraint)
}
