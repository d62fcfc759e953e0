package store

import "errors"

// ErrBookingNotFound is returned when no lookup strategy resolves the
// given identifier. Callers check it with errors.Is; absence is an
// expected outcome, not an exceptional one.
var ErrBookingNotFound = errors.New("booking not found")
