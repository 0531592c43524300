package power

import "codeberg.org/avask/framectl/internal/errors"

const (
	// ErrBusy means another apply is in flight. Recoverable: retry after
	// the current apply settles.
	ErrBusy = errors.ErrorCode("power_apply_busy")

	// ErrPartial means a knob write failed mid-apply and the previous
	// profile was rolled back. The error data names the failed knob.
	ErrPartial = errors.ErrorCode("power_apply_partial")

	// ErrInconsistent means a write failed and the rollback failed too.
	// Hardware state is unknown; the caller must re-apply a known-good
	// profile before trusting it again.
	ErrInconsistent = errors.ErrorCode("power_apply_inconsistent")

	// ErrInvalidFanMode means a direct duty write was attempted outside
	// manual mode.
	ErrInvalidFanMode = errors.ErrorCode("power_invalid_fan_mode")

	// ErrWrongPlatform means the profile was resolved for a different
	// platform than the one this manager drives.
	ErrWrongPlatform = errors.ErrorCode("power_wrong_platform")

	// ErrWriteFailed wraps an individual knob write failure.
	ErrWriteFailed = errors.ErrorCode("power_write_failed")

	// ErrUnknownKnob means a port was asked for a knob it does not have.
	ErrUnknownKnob = errors.ErrorCode("power_unknown_knob")
)
