package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Driver-specific unique violation messages. gorm translates these when
// TranslateError is on, but raw Exec paths still surface the driver text.
var duplicateKeyFragments = []string{
	"duplicate key value violates unique constraint", // postgres 23505
	"Error 1062",                                     // mysql
	"UNIQUE constraint failed",                       // sqlite 2067
}

// IsDuplicateKeyErr reports whether err is a unique constraint violation. The
// order-number allocator relies on this to distinguish a retryable numbering
// race from a genuine storage failure.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, fragment := range duplicateKeyFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
