package display

import "codeberg.org/avask/framectl/internal/errors"

const (
	ErrUnsupportedRate = errors.ErrorCode("display_unsupported_rate")
	ErrWriteFailed     = errors.ErrorCode("display_write_failed")
	ErrNoBacklight     = errors.ErrorCode("display_no_backlight")
)
