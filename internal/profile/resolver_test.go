package profile_test

import (
	"testing"

	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/platform"
	"codeberg.org/avask/framectl/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func caps(t *testing.T, id platform.Identity) platform.Capabilities {
	t.Helper()
	c, ok := platform.Lookup(id)
	require.True(t, ok)
	return c
}

func TestResolveAllDefaults(t *testing.T) {
	overrides := profile.DefaultOverrides()

	for _, id := range []platform.Identity{platform.AMD16, platform.AMD13, platform.Intel13} {
		r := profile.NewResolver(caps(t, id))
		for _, name := range []string{"silent", "balanced", "boost"} {
			p, err := r.Resolve(name, overrides)
			require.NoError(t, err, "%s/%s", id, name)

			assert.Equal(t, id, p.Platform)
			assert.Equal(t, name, p.Name)
			assert.Equal(t, profile.FanAuto, p.FanMode)
			assert.False(t, p.Curve.IsZero())

			if id.IsAMD() {
				require.NotNil(t, p.AMD, "%s/%s", id, name)
				assert.Nil(t, p.Intel)
			} else {
				require.NotNil(t, p.Intel, "%s/%s", id, name)
				assert.Nil(t, p.AMD)
			}
		}
	}
}

func TestResolveBoostDerivation(t *testing.T) {
	r := profile.NewResolver(caps(t, platform.AMD16))
	overrides := profile.DefaultOverrides()

	silent, err := r.Resolve("silent", overrides)
	require.NoError(t, err)
	assert.False(t, silent.BoostEnabled)

	for _, name := range []string{"balanced", "boost"} {
		p, err := r.Resolve(name, overrides)
		require.NoError(t, err)
		assert.True(t, p.BoostEnabled, name)
	}
}

func TestResolveNameIsCaseInsensitive(t *testing.T) {
	r := profile.NewResolver(caps(t, platform.AMD16))

	p, err := r.Resolve("Boost", profile.DefaultOverrides())
	require.NoError(t, err)
	assert.Equal(t, "boost", p.Name)
}

func TestResolveUnknownProfile(t *testing.T) {
	r := profile.NewResolver(caps(t, platform.AMD16))

	_, err := r.Resolve("ludicrous", profile.DefaultOverrides())
	require.Error(t, err)
	assert.Equal(t, profile.ErrUnknownProfile, errors.CodeOf(err))
}

func TestMergePrecedence(t *testing.T) {
	// An explicit stored value must survive the merge with structural
	// defaults even when the default table supplies the same key.
	stored := profile.Overrides{
		"amd16": {
			"silent": {
				"stapm_limit":   30000,
				"boost_enabled": true,
				"fan_curve":     "40c:0%,60c:50%,80c:100%",
			},
		},
	}

	merged := profile.Merge(profile.DefaultOverrides(), stored)

	r := profile.NewResolver(caps(t, platform.AMD16))
	p, err := r.Resolve("silent", merged)
	require.NoError(t, err)

	v, ok := p.Field("stapm_limit")
	require.True(t, ok)
	assert.Equal(t, 30000, v, "explicit stored value must win over the shipped default")

	// explicit boost_enabled wins over the name-derived default
	assert.True(t, p.BoostEnabled)

	// explicit curve wins over the structural default curve
	assert.Equal(t, "40c:0%,60c:50%,80c:100%", p.Curve.String())

	// untouched fields still come from the base table
	v, ok = p.Field("fast_limit")
	require.True(t, ok)
	assert.Equal(t, 20000, v)
}

func TestResolveOutOfRange(t *testing.T) {
	stored := profile.Overrides{
		"amd16": {
			"boost": {"tctl_temp": 120},
		},
	}
	merged := profile.Merge(profile.DefaultOverrides(), stored)

	r := profile.NewResolver(caps(t, platform.AMD16))
	_, err := r.Resolve("boost", merged)
	require.Error(t, err)

	assert.Equal(t, profile.ErrFieldOutOfRange, errors.CodeOf(err))
	var domainErr errors.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "tctl_temp", domainErr.GetData())
}

func TestResolveMissingField(t *testing.T) {
	stored := profile.Overrides{
		"intel13": {
			"custom": {"pl1": 15, "pl2": 30},
		},
	}

	r := profile.NewResolver(caps(t, platform.Intel13))
	_, err := r.Resolve("custom", stored)
	require.Error(t, err)
	assert.Equal(t, profile.ErrFieldMissing, errors.CodeOf(err))
}

func TestResolveBadFieldType(t *testing.T) {
	stored := profile.Overrides{
		"amd16": {
			"boost": {"stapm_limit": "lots"},
		},
	}
	merged := profile.Merge(profile.DefaultOverrides(), stored)

	r := profile.NewResolver(caps(t, platform.AMD16))
	_, err := r.Resolve("boost", merged)
	require.Error(t, err)
	assert.Equal(t, profile.ErrFieldType, errors.CodeOf(err))
}

func TestResolveInvalidFanMode(t *testing.T) {
	stored := profile.Overrides{
		"amd16": {
			"boost": {"fan_mode": "turbo"},
		},
	}
	merged := profile.Merge(profile.DefaultOverrides(), stored)

	r := profile.NewResolver(caps(t, platform.AMD16))
	_, err := r.Resolve("boost", merged)
	require.Error(t, err)
	assert.Equal(t, profile.ErrInvalidFanMode, errors.CodeOf(err))
}

func TestResolveManualFanMode(t *testing.T) {
	stored := profile.Overrides{
		"amd16": {
			"silent": {"fan_mode": "manual"},
		},
	}
	merged := profile.Merge(profile.DefaultOverrides(), stored)

	r := profile.NewResolver(caps(t, platform.AMD16))
	p, err := r.Resolve("silent", merged)
	require.NoError(t, err)
	assert.Equal(t, profile.FanManual, p.FanMode)
}
