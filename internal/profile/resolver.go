package profile

import (
	"strings"

	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/fancurve"
	"codeberg.org/avask/framectl/internal/platform"
)

// amdFields and intelFields list each variant's required knobs in the
// order they appear in the schema documentation.
var amdFields = []string{
	"stapm_limit", "fast_limit", "slow_limit", "tctl_temp",
	"vrm_current", "vrmmax_current", "vrmsoc_current", "vrmsocmax_current",
}

var intelFields = []string{
	"pl1", "pl2", "tau", "cpu_core_offset", "gpu_core_offset", "max_frequency",
}

// Resolver builds validated profiles for one detected platform.
type Resolver struct {
	caps platform.Capabilities
}

func NewResolver(caps platform.Capabilities) *Resolver {
	return &Resolver{caps: caps}
}

// Resolve builds a fully populated profile from a symbolic name and the
// stored override table. Stored values win over structural defaults
// field by field; the result is validated against the platform schema
// before being returned, so a caller never sees a partial profile.
func (r *Resolver) Resolve(name string, overrides Overrides) (Profile, error) {
	errFactory := errors.New()

	name = strings.ToLower(name)
	entry, ok := overrides.Lookup(r.caps.Identity, name)
	if !ok {
		return Profile{}, errFactory.WithData(ErrUnknownProfile, name)
	}

	// Structural defaults; any explicit stored value below replaces them.
	p := Profile{
		Platform:     r.caps.Identity,
		Name:         name,
		BoostEnabled: name != "silent",
		FanMode:      FanAuto,
	}

	if _, present := entry["boost_enabled"]; present {
		b, ok := entry.boolField("boost_enabled")
		if !ok {
			return Profile{}, errFactory.WithData(ErrFieldType, "boost_enabled")
		}
		p.BoostEnabled = b
	}

	if _, present := entry["fan_mode"]; present {
		s, ok := entry.stringField("fan_mode")
		if !ok {
			return Profile{}, errFactory.WithData(ErrFieldType, "fan_mode")
		}
		switch FanMode(s) {
		case FanAuto, FanManual:
			p.FanMode = FanMode(s)
		default:
			return Profile{}, errFactory.WithData(ErrInvalidFanMode, s)
		}
	}

	curveStr := DefaultCurve
	if _, present := entry["fan_curve"]; present {
		s, ok := entry.stringField("fan_curve")
		if !ok {
			return Profile{}, errFactory.WithData(ErrFieldType, "fan_curve")
		}
		curveStr = s
	}

	curve, err := fancurve.Parse(curveStr)
	if err != nil {
		return Profile{}, err
	}
	p.Curve = curve

	if r.caps.Identity.IsAMD() {
		params, err := r.resolveAMD(entry)
		if err != nil {
			return Profile{}, err
		}
		p.AMD = params
	} else {
		params, err := r.resolveIntel(entry)
		if err != nil {
			return Profile{}, err
		}
		p.Intel = params
	}

	if err := r.validate(p); err != nil {
		return Profile{}, err
	}

	return p, nil
}

func (r *Resolver) resolveAMD(entry FieldSet) (*AMDParams, error) {
	values, err := r.fieldValues(entry, amdFields)
	if err != nil {
		return nil, err
	}

	return &AMDParams{
		STAPMLimit:       values["stapm_limit"],
		FastLimit:        values["fast_limit"],
		SlowLimit:        values["slow_limit"],
		TctlTemp:         values["tctl_temp"],
		VRMCurrent:       values["vrm_current"],
		VRMMaxCurrent:    values["vrmmax_current"],
		VRMSoCCurrent:    values["vrmsoc_current"],
		VRMSoCMaxCurrent: values["vrmsocmax_current"],
	}, nil
}

func (r *Resolver) resolveIntel(entry FieldSet) (*IntelParams, error) {
	values, err := r.fieldValues(entry, intelFields)
	if err != nil {
		return nil, err
	}

	return &IntelParams{
		PL1:           values["pl1"],
		PL2:           values["pl2"],
		Tau:           values["tau"],
		CPUCoreOffset: values["cpu_core_offset"],
		GPUCoreOffset: values["gpu_core_offset"],
		MaxFrequency:  values["max_frequency"],
	}, nil
}

func (r *Resolver) fieldValues(entry FieldSet, fields []string) (map[string]int, error) {
	errFactory := errors.New()

	values := make(map[string]int, len(fields))
	for _, field := range fields {
		if _, present := entry[field]; !present {
			return nil, errFactory.WithData(ErrFieldMissing, field)
		}

		v, ok := entry.intField(field)
		if !ok {
			return nil, errFactory.WithData(ErrFieldType, field)
		}
		values[field] = v
	}

	return values, nil
}

func (r *Resolver) validate(p Profile) error {
	errFactory := errors.New()

	for field, bounds := range r.caps.Schema {
		v, ok := p.Field(field)
		if !ok {
			return errFactory.WithData(ErrFieldMissing, field)
		}
		if !bounds.Contains(v) {
			return errFactory.WithData(ErrFieldOutOfRange, field)
		}
	}

	return nil
}
