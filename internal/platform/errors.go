package platform

import "codeberg.org/avask/framectl/internal/errors"

const (
	// ErrNotFound means no recognized platform is present. This is fatal
	// to startup: no component can operate without a known schema.
	ErrNotFound = errors.ErrorCode("platform_not_found")

	// ErrSMBIOSRead means the firmware tables could not be read at all.
	ErrSMBIOSRead = errors.ErrorCode("platform_smbios_read_failed")
)
