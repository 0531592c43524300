// Package core is the inbound API surface. A presentation layer (tray,
// GUI, web) calls the operations here and receives outbound events; it
// never touches the hardware packages directly. One Core is built in
// main and shared; there is no package-level state.
package core

import (
	"context"
	"time"

	"codeberg.org/avask/framectl/internal/display"
	"codeberg.org/avask/framectl/internal/logger"
	"codeberg.org/avask/framectl/internal/platform"
	"codeberg.org/avask/framectl/internal/power"
	"codeberg.org/avask/framectl/internal/profile"
	"codeberg.org/avask/framectl/internal/telemetry"
)

// Events are the outbound callbacks. All fields are optional. Callbacks
// run on core goroutines and must not block for long.
type Events struct {
	OnMetrics            func(telemetry.Snapshot)
	OnProfileApplied     func(profile.Profile)
	OnProfileApplyFailed func(name string, err error)
}

// Core ties the platform catalog, profile resolver, power manager,
// display controller and telemetry sampler together behind one API.
type Core struct {
	caps      platform.Capabilities
	overrides profile.Overrides
	resolver  *profile.Resolver
	manager   *power.Manager
	display   *display.Controller
	sampler   *telemetry.Sampler
	history   telemetry.Repository
	events    Events
}

// New builds a core for an already-detected platform. The sampler is
// created here so every published snapshot also drives the fan loop and
// the history recorder.
func New(
	caps platform.Capabilities,
	overrides profile.Overrides,
	manager *power.Manager,
	displayCtrl *display.Controller,
	sensors telemetry.Sensors,
	history telemetry.Repository,
	events Events,
) *Core {
	c := &Core{
		caps:      caps,
		overrides: overrides,
		resolver:  profile.NewResolver(caps),
		manager:   manager,
		display:   displayCtrl,
		history:   history,
		events:    events,
	}
	c.sampler = telemetry.NewSampler(sensors, c.onSnapshot)

	return c
}

// Platform returns the detected platform capabilities.
func (c *Core) Platform() platform.Capabilities {
	return c.caps
}

// ResolveProfile resolves a symbolic profile name against the stored
// override table without applying anything.
func (c *Core) ResolveProfile(name string) (profile.Profile, error) {
	return c.resolver.Resolve(name, c.overrides)
}

// ApplyProfile resolves and applies a profile by name. On any failure
// the previously applied profile stays authoritative and the failure
// event fires with the cause.
func (c *Core) ApplyProfile(ctx context.Context, name string) error {
	p, err := c.ResolveProfile(name)
	if err != nil {
		c.applyFailed(name, err)
		return err
	}

	if err := c.manager.Apply(ctx, p); err != nil {
		c.applyFailed(name, err)
		return err
	}

	if c.events.OnProfileApplied != nil {
		c.events.OnProfileApplied(p)
	}

	return nil
}

func (c *Core) applyFailed(name string, err error) {
	logger.Warn().Str("profile", name).Err(err).Msg("Profile apply failed")

	if c.events.OnProfileApplyFailed != nil {
		c.events.OnProfileApplyFailed(name, err)
	}
}

// CurrentProfile returns the active profile, if any.
func (c *Core) CurrentProfile() (profile.Profile, bool) {
	return c.manager.Current()
}

// SetFanMode switches between curve-driven and manual fan control.
func (c *Core) SetFanMode(mode profile.FanMode) {
	c.manager.SetFanMode(mode)
}

// SetFanDuty writes a duty cycle directly; valid only in manual mode.
func (c *Core) SetFanDuty(ctx context.Context, duty int) error {
	return c.manager.SetFanDuty(ctx, duty)
}

// SampleMetrics reads all sensors once, outside the periodic schedule.
func (c *Core) SampleMetrics(ctx context.Context) (telemetry.Snapshot, bool) {
	return c.sampler.Sample(ctx)
}

// StartSampling begins periodic telemetry. Each completed snapshot
// drives the fan loop, the history recorder and the OnMetrics event.
func (c *Core) StartSampling(ctx context.Context, interval time.Duration) {
	c.sampler.Start(ctx, interval)
}

// StopSampling halts periodic telemetry.
func (c *Core) StopSampling() {
	c.sampler.Stop()
}

// SetSamplingInterval reschedules the sampler without dropping an
// in-flight sample.
func (c *Core) SetSamplingInterval(d time.Duration) {
	c.sampler.SetInterval(d)
}

// LatestMetrics returns the most recent published snapshot.
func (c *Core) LatestMetrics() (telemetry.Snapshot, bool) {
	return c.sampler.Latest()
}

// SetRefreshRate applies a refresh request to the internal panel.
func (c *Core) SetRefreshRate(ctx context.Context, req display.RefreshRequest) error {
	return c.display.SetRefresh(ctx, req)
}

// SetBrightness sets the backlight percentage, clamped to 0-100.
func (c *Core) SetBrightness(ctx context.Context, percent int) error {
	return c.display.SetBrightness(ctx, percent)
}

// Shutdown stops sampling, releases the fans to the embedded controller
// and closes the history store.
func (c *Core) Shutdown(ctx context.Context) {
	c.sampler.Stop()

	if err := c.manager.ReleaseFans(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to release fan control")
	}
	if err := c.history.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close snapshot history")
	}
}

// onSnapshot runs on the sampler goroutine for every published tick.
func (c *Core) onSnapshot(snap telemetry.Snapshot) {
	ctx := context.Background()

	if err := c.manager.AdjustFans(ctx, snap); err != nil {
		logger.Warn().Err(err).Msg("Fan adjustment failed")
	}
	if err := c.history.Store(ctx, snap); err != nil {
		logger.Warn().Err(err).Msg("Failed to record snapshot")
	}
	if c.events.OnMetrics != nil {
		c.events.OnMetrics(snap)
	}
}
