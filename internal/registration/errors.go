package registration

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	ErrValidation   = errors.New("validation error")
	ErrStoreCorrupt = errors.New("registration store corrupt")
	ErrUnencodable  = errors.New("value cannot be stored verbatim")
)

// ValidationError lists the required fields that were missing or empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Missing required fields: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
