package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/avask/framectl/internal/errors"
	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// CPUSensor reads processor load and temperature.
type CPUSensor interface {
	Load(ctx context.Context) (float64, error)
	Temperature(ctx context.Context) (float64, error)
}

// MemorySensor reads RAM usage as a percentage.
type MemorySensor interface {
	UsedPercent(ctx context.Context) (float64, error)
}

// GPUSensor reads load and temperature for one GPU.
type GPUSensor interface {
	Load(ctx context.Context) (float64, error)
	Temperature(ctx context.Context) (float64, error)
}

// BatterySensor reads the battery state.
type BatterySensor interface {
	Read(ctx context.Context) (BatteryReadings, error)
}

// Sensors bundles the per-device readers a sampler draws from. DGPU is
// nil on platforms without a discrete GPU.
type Sensors struct {
	CPU     CPUSensor
	Memory  MemorySensor
	IGPU    GPUSensor
	DGPU    GPUSensor
	Battery BatterySensor
}

// gopsutilCPU reads load via the kernel's aggregate counters and
// temperature from the first recognized CPU die sensor.
type gopsutilCPU struct{}

func NewCPUSensor() CPUSensor {
	return gopsutilCPU{}
}

func (gopsutilCPU) Load(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, errFactory.Wrap(ErrSensorRead, err)
	}
	if len(percentages) == 0 {
		return 0, errFactory.WithData(ErrSensorUnavailable, "cpu_load")
	}

	return percentages[0], nil
}

// cpuTempKeys are sensor-key substrings that identify the CPU die
// temperature, in preference order: AMD Tctl first, then Intel package.
var cpuTempKeys = []string{"k10temp_tctl", "k10temp", "coretemp_package", "coretemp", "acpitz"}

func (gopsutilCPU) Temperature(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		return 0, errFactory.Wrap(ErrSensorRead, err)
	}

	for _, key := range cpuTempKeys {
		for _, t := range temps {
			if strings.Contains(strings.ToLower(t.SensorKey), key) && t.Temperature > 0 {
				return t.Temperature, nil
			}
		}
	}

	return 0, errFactory.WithData(ErrSensorUnavailable, "cpu_temp")
}

type gopsutilMemory struct{}

func NewMemorySensor() MemorySensor {
	return gopsutilMemory{}
}

func (gopsutilMemory) UsedPercent(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, errFactory.Wrap(ErrSensorRead, err)
	}

	return vmem.UsedPercent, nil
}

// sysfsGPU reads the integrated GPU through the amdgpu sysfs interface:
// busy percentage from gpu_busy_percent and temperature from the first
// hwmon temp input under the device.
type sysfsGPU struct {
	deviceDir string
}

// NewIGPUSensor returns a reader for the integrated GPU. root is "/sys"
// outside of tests.
func NewIGPUSensor(root string) GPUSensor {
	return sysfsGPU{deviceDir: filepath.Join(root, "class/drm/card0/device")}
}

func (g sysfsGPU) Load(_ context.Context) (float64, error) {
	errFactory := errors.New()

	raw, err := os.ReadFile(filepath.Join(g.deviceDir, "gpu_busy_percent"))
	if err != nil {
		return 0, errFactory.Wrap(ErrSensorRead, err)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, errFactory.Wrap(ErrSensorRead, err)
	}

	return v, nil
}

func (g sysfsGPU) Temperature(_ context.Context) (float64, error) {
	errFactory := errors.New()

	matches, err := filepath.Glob(filepath.Join(g.deviceDir, "hwmon/hwmon*/temp1_input"))
	if err != nil || len(matches) == 0 {
		return 0, errFactory.WithData(ErrSensorUnavailable, "igpu_temp")
	}

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		return 0, errFactory.Wrap(ErrSensorRead, err)
	}

	milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, errFactory.Wrap(ErrSensorRead, err)
	}

	return milli / 1000, nil
}

// unavailableGPU stands in when the platform declares a discrete GPU
// the driver cannot reach. Snapshots keep the DGPU fields, degraded to
// OK=false, instead of dropping them.
type unavailableGPU struct{}

func NewUnavailableGPUSensor() GPUSensor {
	return unavailableGPU{}
}

func (unavailableGPU) Load(_ context.Context) (float64, error) {
	return 0, errors.New().WithData(ErrSensorUnavailable, "dgpu_load")
}

func (unavailableGPU) Temperature(_ context.Context) (float64, error) {
	return 0, errors.New().WithData(ErrSensorUnavailable, "dgpu_temp")
}

type systemBattery struct{}

func NewBatterySensor() BatterySensor {
	return systemBattery{}
}

func (systemBattery) Read(_ context.Context) (BatteryReadings, error) {
	errFactory := errors.New()

	bats, err := battery.GetAll()
	if err != nil {
		return BatteryReadings{TimeRemaining: -1}, errFactory.Wrap(ErrSensorRead, err)
	}
	if len(bats) == 0 {
		return BatteryReadings{TimeRemaining: -1}, errFactory.WithData(ErrSensorUnavailable, "battery")
	}

	b := bats[0]

	readings := BatteryReadings{
		Charging:      b.State == battery.Charging || b.State == battery.Full,
		TimeRemaining: -1,
	}
	if b.Full > 0 {
		readings.Percent = Reading{Value: b.Current / b.Full * 100, OK: true}
	}
	if b.State == battery.Discharging && b.ChargeRate > 0 {
		readings.TimeRemaining = int(b.Current / b.ChargeRate * 60)
	}

	return readings, nil
}
