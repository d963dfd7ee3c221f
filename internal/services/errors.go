package services

import (
	"errors"

	"github.com/ajramos/courrier/internal/mirror"
)

// Standard service errors
var (
	// Data errors
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input provided")

	// Storage errors. Both come from the mirror so errors.Is works across
	// layers.
	ErrPersist       = mirror.ErrPersist
	ErrQuotaExceeded = mirror.ErrQuotaExceeded

	// Undo errors
	ErrNothingToUndo = errors.New("nothing to undo")
)

// IsPersistError reports a failed write; memory and storage may have
// diverged and the caller should reload
func IsPersistError(err error) bool {
	return errors.Is(err, ErrPersist)
}

// IsPermanentError determines if an error is permanent and should not be retried
func IsPermanentError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrNothingToUndo)
}
