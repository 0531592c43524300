// Package platform identifies the running chassis and declares what
// each supported platform can do: which power knobs exist, their valid
// ranges, the maximum display refresh rate, and whether a discrete GPU
// is present. Everything here is static; detection runs once at startup.
package platform

// Identity enumerates the supported hardware platforms. It is fixed
// once detected and selects the profile schema and display caps used
// by every other component.
type Identity string

const (
	AMD16   Identity = "amd16"
	AMD13   Identity = "amd13"
	Intel13 Identity = "intel13"
)

func (id Identity) String() string {
	return string(id)
}

// IsAMD reports whether the platform uses the AMD parameter schema.
func (id Identity) IsAMD() bool {
	return id == AMD16 || id == AMD13
}

// Range bounds a numeric profile field, inclusive on both ends.
type Range struct {
	Min, Max int
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Capabilities describes one platform's parameter schema and display caps.
type Capabilities struct {
	Identity       Identity
	Schema         map[string]Range
	MaxRefreshRate int
	HasDiscreteGPU bool
}

// catalog maps each identity to its capabilities. Power bounds follow
// the vendor-documented envelopes for each chassis: AMD limits are in
// mW (STAPM family) and mA (VRM family), Intel PL1/PL2 in W, tau in
// seconds, voltage offsets in mV (undervolt only), max frequency in MHz.
var catalog = map[Identity]Capabilities{
	AMD16: {
		Identity:       AMD16,
		MaxRefreshRate: 165,
		HasDiscreteGPU: true,
		Schema: map[string]Range{
			"stapm_limit":       {5000, 54000},
			"fast_limit":        {5000, 60000},
			"slow_limit":        {5000, 54000},
			"tctl_temp":         {60, 100},
			"vrm_current":       {100000, 260000},
			"vrmmax_current":    {100000, 260000},
			"vrmsoc_current":    {100000, 220000},
			"vrmsocmax_current": {100000, 220000},
		},
	},
	AMD13: {
		Identity:       AMD13,
		MaxRefreshRate: 60,
		HasDiscreteGPU: false,
		Schema: map[string]Range{
			"stapm_limit":       {5000, 35000},
			"fast_limit":        {5000, 42000},
			"slow_limit":        {5000, 35000},
			"tctl_temp":         {60, 100},
			"vrm_current":       {80000, 200000},
			"vrmmax_current":    {80000, 200000},
			"vrmsoc_current":    {80000, 180000},
			"vrmsocmax_current": {80000, 180000},
		},
	},
	Intel13: {
		Identity:       Intel13,
		MaxRefreshRate: 60,
		HasDiscreteGPU: false,
		Schema: map[string]Range{
			"pl1":             {5, 45},
			"pl2":             {10, 64},
			"tau":             {1, 128},
			"cpu_core_offset": {-150, 0},
			"gpu_core_offset": {-150, 0},
			"max_frequency":   {400, 5200},
		},
	},
}

// Lookup returns the capabilities for the given identity.
func Lookup(id Identity) (Capabilities, bool) {
	caps, ok := catalog[id]
	return caps, ok
}
