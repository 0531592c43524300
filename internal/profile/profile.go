// Package profile defines power profiles and resolves them from a
// symbolic name plus the stored override table. A resolved profile is
// fully populated and schema-validated; it is immutable afterwards and
// superseded, never mutated, when the user selects another one.
package profile

import (
	"codeberg.org/avask/framectl/internal/fancurve"
	"codeberg.org/avask/framectl/internal/platform"
)

// FanMode selects between curve-driven and directly written fan duty.
type FanMode string

const (
	FanAuto   FanMode = "auto"
	FanManual FanMode = "manual"
)

// AMDParams holds the AMD platform knobs. Power limits are in mW,
// TctlTemp in degrees Celsius, VRM currents in mA.
type AMDParams struct {
	STAPMLimit       int
	FastLimit        int
	SlowLimit        int
	TctlTemp         int
	VRMCurrent       int
	VRMMaxCurrent    int
	VRMSoCCurrent    int
	VRMSoCMaxCurrent int
}

// IntelParams holds the Intel platform knobs. PL1/PL2 are in W, Tau in
// seconds, voltage offsets in mV (zero or negative), MaxFrequency in MHz.
type IntelParams struct {
	PL1           int
	PL2           int
	Tau           int
	CPUCoreOffset int
	GPUCoreOffset int
	MaxFrequency  int
}

// Profile is a fully resolved parameter set for one platform. Exactly
// one of AMD or Intel is non-nil, matching the platform variant.
type Profile struct {
	Platform     platform.Identity
	Name         string
	BoostEnabled bool
	FanMode      FanMode
	Curve        fancurve.Curve

	AMD   *AMDParams
	Intel *IntelParams
}

// Field returns the named numeric knob value. The name keys match the
// platform schema and the stored override table.
func (p Profile) Field(name string) (int, bool) {
	if p.AMD != nil {
		switch name {
		case "stapm_limit":
			return p.AMD.STAPMLimit, true
		case "fast_limit":
			return p.AMD.FastLimit, true
		case "slow_limit":
			return p.AMD.SlowLimit, true
		case "tctl_temp":
			return p.AMD.TctlTemp, true
		case "vrm_current":
			return p.AMD.VRMCurrent, true
		case "vrmmax_current":
			return p.AMD.VRMMaxCurrent, true
		case "vrmsoc_current":
			return p.AMD.VRMSoCCurrent, true
		case "vrmsocmax_current":
			return p.AMD.VRMSoCMaxCurrent, true
		}
	}

	if p.Intel != nil {
		switch name {
		case "pl1":
			return p.Intel.PL1, true
		case "pl2":
			return p.Intel.PL2, true
		case "tau":
			return p.Intel.Tau, true
		case "cpu_core_offset":
			return p.Intel.CPUCoreOffset, true
		case "gpu_core_offset":
			return p.Intel.GPUCoreOffset, true
		case "max_frequency":
			return p.Intel.MaxFrequency, true
		}
	}

	return 0, false
}
