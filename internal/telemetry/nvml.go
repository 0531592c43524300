package telemetry

import (
	"context"

	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlGPU reads the discrete GPU through NVML. One session is owned by
// the sampler; Close must be called on shutdown.
type nvmlGPU struct {
	device nvml.Device
}

// NewDGPUSensor initializes NVML and binds to the first device. Returns
// ErrSensorInit when no discrete GPU is reachable; platforms without
// one never call this.
func NewDGPUSensor() (GPUSensor, func() error, error) {
	errFactory := errors.New()

	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, nil, errFactory.WithData(ErrSensorInit, nvml.ErrorString(ret))
	}

	device, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		nvml.Shutdown()
		return nil, nil, errFactory.WithData(ErrSensorInit, nvml.ErrorString(ret))
	}

	if name, ret := device.GetName(); ret == nvml.SUCCESS {
		logger.Info().Str("gpu", name).Msg("Detected discrete GPU")
	}

	shutdown := func() error {
		if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
			return errFactory.WithData(ErrSensorClose, nvml.ErrorString(ret))
		}
		return nil
	}

	return nvmlGPU{device: device}, shutdown, nil
}

func (g nvmlGPU) Load(_ context.Context) (float64, error) {
	errFactory := errors.New()

	util, ret := g.device.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return 0, errFactory.WithData(ErrSensorRead, nvml.ErrorString(ret))
	}

	return float64(util.Gpu), nil
}

func (g nvmlGPU) Temperature(_ context.Context) (float64, error) {
	errFactory := errors.New()

	temp, ret := g.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		return 0, errFactory.WithData(ErrSensorRead, nvml.ErrorString(ret))
	}

	return float64(temp), nil
}
