package profile

import "codeberg.org/avask/framectl/internal/errors"

const (
	// ErrUnknownProfile means the symbolic name has no entry in the
	// stored override table for the detected platform.
	ErrUnknownProfile = errors.ErrorCode("profile_unknown")

	// ErrFieldMissing means a knob required by the platform schema has
	// no stored value. The error data names the field.
	ErrFieldMissing = errors.ErrorCode("profile_field_missing")

	// ErrFieldOutOfRange means a stored value is outside the platform's
	// documented bounds. The error data names the field.
	ErrFieldOutOfRange = errors.ErrorCode("profile_field_out_of_range")

	// ErrFieldType means a stored value has the wrong type. The error
	// data names the field.
	ErrFieldType = errors.ErrorCode("profile_field_bad_type")

	// ErrInvalidFanMode means a stored fan_mode is neither auto nor manual.
	ErrInvalidFanMode = errors.ErrorCode("profile_invalid_fan_mode")
)
