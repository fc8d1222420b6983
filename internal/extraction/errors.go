package extraction

import "errors"

var (
	// ErrInvalidField indicates an extracted field value that cannot be
	// parsed, or a mandatory field that is absent. Wrapped errors carry the
	// field path.
	ErrInvalidField = errors.New("invalid field value")
	// ErrTableShape indicates line-item table dimensions inconsistent with
	// the supplied cell count.
	ErrTableShape = errors.New("table shape mismatch")
)
