package telemetry

import "codeberg.org/avask/framectl/internal/errors"

const (
	// Sensor errors
	ErrSensorInit        = errors.ErrorCode("telemetry_sensor_init_failed")
	ErrSensorUnavailable = errors.ErrorCode("telemetry_sensor_unavailable")
	ErrSensorRead        = errors.ErrorCode("telemetry_sensor_read_failed")
	ErrSensorClose       = errors.ErrorCode("telemetry_sensor_close_failed")

	// History storage errors
	ErrInvalidDBPath = errors.ErrorCode("telemetry_invalid_db_path")
	ErrStorageInit   = errors.ErrorCode("telemetry_storage_init_failed")
	ErrStorageAccess = errors.ErrorCode("telemetry_storage_access_failed")
	ErrStorageClose  = errors.ErrorCode("telemetry_storage_close_failed")
)
