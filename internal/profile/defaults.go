package profile

// DefaultCurve is the fan curve supplied when a stored profile carries
// none of its own.
const DefaultCurve = "30c:0%,40c:10%,50c:20%,60c:40%,70c:60%,80c:80%,90c:100%"

// DefaultOverrides returns the shipped profile table: every platform
// gets silent, balanced and boost entries within its documented bounds.
// A stored overrides file is layered on top of this with Merge.
func DefaultOverrides() Overrides {
	return Overrides{
		"amd16": {
			"silent": {
				"stapm_limit":       15000,
				"fast_limit":        20000,
				"slow_limit":        15000,
				"tctl_temp":         85,
				"vrm_current":       140000,
				"vrmmax_current":    160000,
				"vrmsoc_current":    120000,
				"vrmsocmax_current": 130000,
			},
			"balanced": {
				"stapm_limit":       30000,
				"fast_limit":        35000,
				"slow_limit":        30000,
				"tctl_temp":         90,
				"vrm_current":       180000,
				"vrmmax_current":    200000,
				"vrmsoc_current":    160000,
				"vrmsocmax_current": 170000,
			},
			"boost": {
				"stapm_limit":       45000,
				"fast_limit":        53000,
				"slow_limit":        45000,
				"tctl_temp":         95,
				"vrm_current":       220000,
				"vrmmax_current":    240000,
				"vrmsoc_current":    180000,
				"vrmsocmax_current": 190000,
			},
		},
		"amd13": {
			"silent": {
				"stapm_limit":       12000,
				"fast_limit":        15000,
				"slow_limit":        12000,
				"tctl_temp":         85,
				"vrm_current":       100000,
				"vrmmax_current":    120000,
				"vrmsoc_current":    90000,
				"vrmsocmax_current": 100000,
			},
			"balanced": {
				"stapm_limit":       22000,
				"fast_limit":        28000,
				"slow_limit":        22000,
				"tctl_temp":         90,
				"vrm_current":       140000,
				"vrmmax_current":    160000,
				"vrmsoc_current":    120000,
				"vrmsocmax_current": 130000,
			},
			"boost": {
				"stapm_limit":       30000,
				"fast_limit":        35000,
				"slow_limit":        30000,
				"tctl_temp":         95,
				"vrm_current":       180000,
				"vrmmax_current":    200000,
				"vrmsoc_current":    150000,
				"vrmsocmax_current": 160000,
			},
		},
		"intel13": {
			"silent": {
				"pl1":             10,
				"pl2":             25,
				"tau":             28,
				"cpu_core_offset": -50,
				"gpu_core_offset": -30,
				"max_frequency":   3500,
			},
			"balanced": {
				"pl1":             20,
				"pl2":             45,
				"tau":             28,
				"cpu_core_offset": -30,
				"gpu_core_offset": -20,
				"max_frequency":   4500,
			},
			"boost": {
				"pl1":             28,
				"pl2":             60,
				"tau":             56,
				"cpu_core_offset": 0,
				"gpu_core_offset": 0,
				"max_frequency":   5000,
			},
		},
	}
}
