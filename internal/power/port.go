package power

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/logger"
)

// Knob names one hardware parameter a port can write. Profile knobs
// share their names with the platform schema; fan knobs are internal.
type Knob string

const (
	KnobSTAPMLimit       Knob = "stapm_limit"
	KnobFastLimit        Knob = "fast_limit"
	KnobSlowLimit        Knob = "slow_limit"
	KnobTctlTemp         Knob = "tctl_temp"
	KnobVRMCurrent       Knob = "vrm_current"
	KnobVRMMaxCurrent    Knob = "vrmmax_current"
	KnobVRMSoCCurrent    Knob = "vrmsoc_current"
	KnobVRMSoCMaxCurrent Knob = "vrmsocmax_current"

	KnobPL1           Knob = "pl1"
	KnobPL2           Knob = "pl2"
	KnobTau           Knob = "tau"
	KnobCPUCoreOffset Knob = "cpu_core_offset"
	KnobGPUCoreOffset Knob = "gpu_core_offset"
	KnobMaxFrequency  Knob = "max_frequency"

	KnobBoost   Knob = "boost"
	KnobFanDuty Knob = "fan_duty"
	KnobFanAuto Knob = "fan_auto"
)

// Port writes one knob to hardware. Writes may block; no timeout is
// imposed here, callers wrap the context if they need bounded latency.
type Port interface {
	Write(ctx context.Context, knob Knob, value int) error
}

// Runner executes an external control utility. Split out so ports can
// be exercised in tests without touching hardware.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}

	return nil
}

// amdPort drives AMD SMU limits through ryzenadj and the fans through
// the embedded-controller tool.
type amdPort struct {
	runner      Runner
	ryzenadjBin string
	ectoolBin   string
}

// NewAMDPort returns the production port for the AMD platforms.
func NewAMDPort(runner Runner) Port {
	return &amdPort{runner: runner, ryzenadjBin: "ryzenadj", ectoolBin: "ectool"}
}

var ryzenadjFlags = map[Knob]string{
	KnobSTAPMLimit:       "--stapm-limit",
	KnobFastLimit:        "--fast-limit",
	KnobSlowLimit:        "--slow-limit",
	KnobTctlTemp:         "--tctl-temp",
	KnobVRMCurrent:       "--vrm-current",
	KnobVRMMaxCurrent:    "--vrmmax-current",
	KnobVRMSoCCurrent:    "--vrmsoc-current",
	KnobVRMSoCMaxCurrent: "--vrmsocmax-current",
}

func (p *amdPort) Write(ctx context.Context, knob Knob, value int) error {
	errFactory := errors.New()

	switch knob {
	case KnobBoost:
		flag := "--power-saving"
		if value != 0 {
			flag = "--max-performance"
		}
		if err := p.runner.Run(ctx, p.ryzenadjBin, flag); err != nil {
			return errFactory.Wrap(ErrWriteFailed, err).WithData(string(knob))
		}
	case KnobFanDuty:
		if err := p.runner.Run(ctx, p.ectoolBin, "fanduty", strconv.Itoa(value)); err != nil {
			return errFactory.Wrap(ErrWriteFailed, err).WithData(string(knob))
		}
	case KnobFanAuto:
		if err := p.runner.Run(ctx, p.ectoolBin, "autofanctrl"); err != nil {
			return errFactory.Wrap(ErrWriteFailed, err).WithData(string(knob))
		}
	default:
		flag, ok := ryzenadjFlags[knob]
		if !ok {
			return errFactory.WithData(ErrUnknownKnob, string(knob))
		}
		if err := p.runner.Run(ctx, p.ryzenadjBin, fmt.Sprintf("%s=%d", flag, value)); err != nil {
			return errFactory.Wrap(ErrWriteFailed, err).WithData(string(knob))
		}
	}

	logger.Debug().Str("knob", string(knob)).Int("value", value).Msg("Wrote knob")

	return nil
}

// intelPort drives RAPL power limits through the powercap sysfs tree,
// voltage offsets through the undervolt utility, and fans through the
// embedded-controller tool.
type intelPort struct {
	runner       Runner
	sysfsRoot    string
	undervoltBin string
	ectoolBin    string
}

// NewIntelPort returns the production port for the Intel platform.
// sysfsRoot is "/sys" outside of tests.
func NewIntelPort(runner Runner, sysfsRoot string) Port {
	return &intelPort{
		runner:       runner,
		sysfsRoot:    sysfsRoot,
		undervoltBin: "undervolt",
		ectoolBin:    "ectool",
	}
}

func (p *intelPort) Write(ctx context.Context, knob Knob, value int) error {
	errFactory := errors.New()

	var err error
	switch knob {
	case KnobPL1:
		err = p.writeSysfs("class/powercap/intel-rapl:0/constraint_0_power_limit_uw", value*1_000_000)
	case KnobPL2:
		err = p.writeSysfs("class/powercap/intel-rapl:0/constraint_1_power_limit_uw", value*1_000_000)
	case KnobTau:
		err = p.writeSysfs("class/powercap/intel-rapl:0/constraint_0_time_window_us", value*1_000_000)
	case KnobMaxFrequency:
		err = p.writeScalingMax(value * 1000) // MHz to kHz
	case KnobCPUCoreOffset:
		err = p.runner.Run(ctx, p.undervoltBin, "--core", strconv.Itoa(value))
	case KnobGPUCoreOffset:
		err = p.runner.Run(ctx, p.undervoltBin, "--gpu", strconv.Itoa(value))
	case KnobBoost:
		noTurbo := 1
		if value != 0 {
			noTurbo = 0
		}
		err = p.writeSysfs("devices/system/cpu/intel_pstate/no_turbo", noTurbo)
	case KnobFanDuty:
		err = p.runner.Run(ctx, p.ectoolBin, "fanduty", strconv.Itoa(value))
	case KnobFanAuto:
		err = p.runner.Run(ctx, p.ectoolBin, "autofanctrl")
	default:
		return errFactory.WithData(ErrUnknownKnob, string(knob))
	}

	if err != nil {
		return errFactory.Wrap(ErrWriteFailed, err).WithData(string(knob))
	}

	logger.Debug().Str("knob", string(knob)).Int("value", value).Msg("Wrote knob")

	return nil
}

func (p *intelPort) writeSysfs(rel string, value int) error {
	path := filepath.Join(p.sysfsRoot, rel)
	return os.WriteFile(path, []byte(strconv.Itoa(value)), 0o644)
}

func (p *intelPort) writeScalingMax(khz int) error {
	policies, err := filepath.Glob(filepath.Join(p.sysfsRoot, "devices/system/cpu/cpufreq/policy*"))
	if err != nil {
		return err
	}

	for _, policy := range policies {
		path := filepath.Join(policy, "scaling_max_freq")
		if err := os.WriteFile(path, []byte(strconv.Itoa(khz)), 0o644); err != nil {
			return err
		}
	}

	return nil
}
