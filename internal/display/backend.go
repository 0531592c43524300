package display

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/avask/framectl/internal/errors"
)

// Runner executes an external display utility. Split out so the backend
// can be exercised in tests without a running X server.
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

// sysfsBackend sets the refresh rate through xrandr and the brightness
// through the kernel backlight interface, scaled against the panel's
// max_brightness.
type sysfsBackend struct {
	runner    Runner
	output    string
	sysfsRoot string
}

// NewSysfsBackend returns the production backend. output is the xrandr
// output name of the internal panel (typically "eDP-1"); sysfsRoot is
// "/sys" outside of tests.
func NewSysfsBackend(runner Runner, output, sysfsRoot string) Backend {
	return &sysfsBackend{runner: runner, output: output, sysfsRoot: sysfsRoot}
}

func (b *sysfsBackend) SetRefreshRate(ctx context.Context, hz int) error {
	errFactory := errors.New()

	err := b.runner.Run(ctx, "xrandr", "--output", b.output, "--rate", strconv.Itoa(hz))
	if err != nil {
		return errFactory.Wrap(ErrWriteFailed, err)
	}

	return nil
}

func (b *sysfsBackend) SetAutoRefresh(ctx context.Context) error {
	errFactory := errors.New()

	// --auto selects the panel's preferred mode.
	if err := b.runner.Run(ctx, "xrandr", "--output", b.output, "--auto"); err != nil {
		return errFactory.Wrap(ErrWriteFailed, err)
	}

	return nil
}

func (b *sysfsBackend) SetBrightness(_ context.Context, percent int) error {
	errFactory := errors.New()

	devices, err := filepath.Glob(filepath.Join(b.sysfsRoot, "class/backlight/*"))
	if err != nil || len(devices) == 0 {
		return errFactory.New(ErrNoBacklight)
	}
	device := devices[0]

	raw, err := os.ReadFile(filepath.Join(device, "max_brightness"))
	if err != nil {
		return errFactory.Wrap(ErrWriteFailed, err)
	}

	maxBrightness, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || maxBrightness <= 0 {
		return errFactory.Wrap(ErrWriteFailed, err)
	}

	value := maxBrightness * percent / 100

	path := filepath.Join(device, "brightness")
	if err := os.WriteFile(path, []byte(strconv.Itoa(value)), 0o644); err != nil {
		return errFactory.Wrap(ErrWriteFailed, err)
	}

	return nil
}
