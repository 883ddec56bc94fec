package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Library errors
	ErrValidation  = fmt.Errorf("validation failed")
	ErrNotFound    = fmt.Errorf("not found")
	ErrStorage     = fmt.Errorf("storage failure")
	ErrSyncFailed  = fmt.Errorf("sync replay failed")
	ErrUnavailable = fmt.Errorf("service unavailable")

	// Export errors
	ErrInvalidFormat = fmt.Errorf("invalid export format")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// IsNotFound reports whether err signals an absent entity
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
