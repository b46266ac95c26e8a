package rebate

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("rebate: not found")
	ErrAlreadyExists = errors.New("rebate: already exists")
	ErrInvalidInput  = errors.New("rebate: invalid input")

	// Entity errors
	ErrTalentNotFound   = errors.New("rebate: talent not found")
	ErrAgencyNotFound   = errors.New("rebate: agency not found")
	ErrCustomerNotFound = errors.New("rebate: customer not found")
	ErrRelationNotFound = errors.New("rebate: customer-talent relation not found")
	ErrRecordNotFound   = errors.New("rebate: config record not found")
	ErrImportNotFound   = errors.New("rebate: rate-library import not found")

	// Request-shape errors
	ErrBatchTooLarge = errors.New("rebate: batch exceeds size limit")
	ErrRateRequired  = errors.New("rebate: rebate rate is required")

	// Per-item business errors
	ErrAlreadyBound = errors.New("rebate: talent already bound to another agency")

	// Store errors
	ErrStoreNotReady = errors.New("rebate: store not ready")
	ErrStoreClosed   = errors.New("rebate: store is closed")
)

// ValidationError represents a request-shape validation failure with details.
// Validation failures reject the whole request before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("rebate: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap ties ValidationError into the ErrInvalidInput chain so callers can
// match either the sentinel or the typed error.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTalentNotFound) ||
		errors.Is(err, ErrAgencyNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrRelationNotFound) ||
		errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrImportNotFound)
}

// IsValidation returns true if the error is a request-shape validation
// failure. Such requests are rejected outright with no side effects.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrBatchTooLarge) ||
		errors.Is(err, ErrRateRequired)
}
