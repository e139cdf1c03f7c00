package domain

import "errors"

// Error taxonomy. Callers wrap these with fmt.Errorf("...: %w") and the
// HTTP layer maps them to status codes with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrStore         = errors.New("store error")
	ErrLookup        = errors.New("lookup error")
)
