package display_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/avask/framectl/internal/display"
	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	rates      []int
	autoCalls  int
	brightness []int
}

func (b *fakeBackend) SetRefreshRate(_ context.Context, hz int) error {
	b.rates = append(b.rates, hz)
	return nil
}

func (b *fakeBackend) SetAutoRefresh(_ context.Context) error {
	b.autoCalls++
	return nil
}

func (b *fakeBackend) SetBrightness(_ context.Context, percent int) error {
	b.brightness = append(b.brightness, percent)
	return nil
}

func controller(t *testing.T, id platform.Identity) (*display.Controller, *fakeBackend) {
	t.Helper()

	caps, ok := platform.Lookup(id)
	require.True(t, ok)

	backend := &fakeBackend{}

	return display.NewController(caps, backend), backend
}

func TestSetRefreshExplicitRate(t *testing.T) {
	ctrl, backend := controller(t, platform.AMD16)

	require.NoError(t, ctrl.SetRefresh(context.Background(), display.Rate(165)))
	require.NoError(t, ctrl.SetRefresh(context.Background(), display.Rate(60)))

	assert.Equal(t, []int{165, 60}, backend.rates)
	assert.Zero(t, backend.autoCalls)
}

func TestSetRefreshAboveCap(t *testing.T) {
	ctrl, backend := controller(t, platform.AMD13)

	err := ctrl.SetRefresh(context.Background(), display.Rate(165))
	require.Error(t, err)
	assert.Equal(t, display.ErrUnsupportedRate, errors.CodeOf(err))
	assert.Empty(t, backend.rates, "Rejected rate must not reach the backend")
}

func TestSetRefreshRejectsNonPositive(t *testing.T) {
	ctrl, _ := controller(t, platform.AMD16)

	for _, hz := range []int{0, -60} {
		err := ctrl.SetRefresh(context.Background(), display.Rate(hz))
		require.Error(t, err)
		assert.Equal(t, display.ErrUnsupportedRate, errors.CodeOf(err))
	}
}

func TestSetRefreshAuto(t *testing.T) {
	ctrl, backend := controller(t, platform.Intel13)

	require.NoError(t, ctrl.SetRefresh(context.Background(), display.Auto()))

	assert.Equal(t, 1, backend.autoCalls, "Auto is a distinct backend mode")
	assert.Empty(t, backend.rates)
}

func TestSetBrightnessClamps(t *testing.T) {
	ctrl, backend := controller(t, platform.AMD16)

	require.NoError(t, ctrl.SetBrightness(context.Background(), 50))
	require.NoError(t, ctrl.SetBrightness(context.Background(), 150))
	require.NoError(t, ctrl.SetBrightness(context.Background(), -10))

	assert.Equal(t, []int{50, 100, 0}, backend.brightness)
}

type fakeRunner struct {
	commands []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	r.commands = append(r.commands, strings.Join(append([]string{name}, args...), " "))
	return nil
}

func TestSysfsBackendRefreshCommands(t *testing.T) {
	runner := &fakeRunner{}
	backend := display.NewSysfsBackend(runner, "eDP-1", t.TempDir())

	require.NoError(t, backend.SetRefreshRate(context.Background(), 165))
	require.NoError(t, backend.SetAutoRefresh(context.Background()))

	assert.Equal(t, []string{
		"xrandr --output eDP-1 --rate 165",
		"xrandr --output eDP-1 --auto",
	}, runner.commands)
}

func TestSysfsBackendBrightness(t *testing.T) {
	root := t.TempDir()
	device := filepath.Join(root, "class/backlight/amdgpu_bl0")
	require.NoError(t, os.MkdirAll(device, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(device, "max_brightness"), []byte("255\n"), 0o644))

	backend := display.NewSysfsBackend(&fakeRunner{}, "eDP-1", root)

	require.NoError(t, backend.SetBrightness(context.Background(), 50))

	raw, err := os.ReadFile(filepath.Join(device, "brightness"))
	require.NoError(t, err)
	assert.Equal(t, "127", string(raw), "50% of 255 scaled down")
}

func TestSysfsBackendNoBacklight(t *testing.T) {
	backend := display.NewSysfsBackend(&fakeRunner{}, "eDP-1", t.TempDir())

	err := backend.SetBrightness(context.Background(), 50)
	require.Error(t, err)
	assert.Equal(t, display.ErrNoBacklight, errors.CodeOf(err))
}
