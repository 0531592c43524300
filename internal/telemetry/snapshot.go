// Package telemetry periodically samples hardware sensors into
// immutable snapshots. The sampler exclusively owns the most recent
// snapshot and hands out copies, so readers never see a half-written
// one. A failed sensor degrades only its own field, never the tick.
package telemetry

import "time"

// Reading is one sensor value. OK is false when the read failed or the
// sensor does not exist on this platform.
type Reading struct {
	Value float64
	OK    bool
}

// GPUReadings groups load and temperature for one GPU.
type GPUReadings struct {
	Load Reading
	Temp Reading
}

// BatteryReadings is the battery state for one tick. TimeRemaining is
// in minutes, -1 when unknown (charging, or rate unreadable).
type BatteryReadings struct {
	Percent       Reading
	Charging      bool
	TimeRemaining int
}

// Snapshot is one tick's worth of hardware metrics. Created once per
// tick and never mutated; the next tick supersedes it. DGPU is non-nil
// exactly when the platform declares a discrete GPU - a platform
// invariant, not a runtime toggle.
type Snapshot struct {
	Time    time.Time
	CPULoad Reading
	CPUTemp Reading
	IGPU    GPUReadings
	DGPU    *GPUReadings
	RAM     Reading
	Battery BatteryReadings
}
