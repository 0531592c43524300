// Package power applies resolved profiles to hardware and owns the
// currently active profile. Only this package writes power-limit or fan
// state; telemetry reads go through internal/telemetry.
package power

import (
	"context"
	"sync"
	"sync/atomic"

	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/logger"
	"codeberg.org/avask/framectl/internal/platform"
	"codeberg.org/avask/framectl/internal/profile"
	"codeberg.org/avask/framectl/internal/telemetry"
)

// State is the apply state machine: Idle -> Applying -> Applied|Failed.
type State string

const (
	StateIdle     State = "idle"
	StateApplying State = "applying"
	StateApplied  State = "applied"
	StateFailed   State = "failed"
)

// Writes within dutyHysteresis of the last duty are skipped to keep the
// fans from hunting around a breakpoint.
const dutyHysteresis = 2

type knobWrite struct {
	knob  Knob
	value int
}

// Manager owns profile application and fan mode. One apply may be in
// flight at a time; a concurrent second call is rejected with ErrBusy,
// never queued, so partial writes can never interleave.
type Manager struct {
	port Port
	caps platform.Capabilities

	applying atomic.Bool

	// hwMu serializes all hardware writes; holding it across a whole
	// apply is what orders apply completion before the next fan decision.
	hwMu     sync.Mutex
	lastDuty int

	stateMu    sync.RWMutex
	state      State
	current    profile.Profile
	hasCurrent bool
	fanMode    profile.FanMode
}

func NewManager(caps platform.Capabilities, port Port) *Manager {
	return &Manager{
		port:     port,
		caps:     caps,
		state:    StateIdle,
		fanMode:  profile.FanAuto,
		lastDuty: -1,
	}
}

// Current returns the active profile, if any apply has succeeded yet.
// The returned value is a copy; the active profile itself is immutable.
func (m *Manager) Current() (profile.Profile, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	return m.current, m.hasCurrent
}

// State returns the apply state machine's current state.
func (m *Manager) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	return m.state
}

// Apply writes the profile's knobs to hardware in the documented order:
// thermal ceiling first, then power limits, then currents and offsets,
// so no transient state allows a power limit above the sustainable
// thermal envelope. On a failed write the remaining knobs are skipped
// and the previous applied profile is rolled back best-effort. There is
// no cancellation once started; the call runs to Applied or Failed.
func (m *Manager) Apply(ctx context.Context, p profile.Profile) error {
	errFactory := errors.New()

	if p.Platform != m.caps.Identity {
		return errFactory.WithData(ErrWrongPlatform, p.Platform.String())
	}

	if !m.applying.CompareAndSwap(false, true) {
		return errFactory.New(ErrBusy)
	}
	defer m.applying.Store(false)

	m.hwMu.Lock()
	defer m.hwMu.Unlock()

	m.setState(StateApplying)

	prev, hasPrev := m.Current()

	if failed, err := m.writeKnobs(ctx, p, true); err != nil {
		logger.Warn().
			Str("profile", p.Name).
			Str("knob", string(failed)).
			Err(err).
			Msg("Knob write failed, rolling back")

		if !hasPrev {
			m.setState(StateFailed)
			return errFactory.Wrap(ErrInconsistent, err)
		}

		if _, rbErr := m.writeKnobs(ctx, prev, false); rbErr != nil {
			m.setState(StateFailed)
			return errFactory.Wrap(ErrInconsistent, rbErr)
		}

		m.setState(StateApplied)

		return errFactory.Wrap(ErrPartial, err).WithData(string(failed))
	}

	m.stateMu.Lock()
	m.current = p
	m.hasCurrent = true
	m.state = StateApplied
	m.fanMode = p.FanMode
	m.stateMu.Unlock()

	logger.Info().
		Str("profile", p.Name).
		Str("platform", p.Platform.String()).
		Bool("boost", p.BoostEnabled).
		Msg("Profile applied")

	return nil
}

// writeKnobs writes the profile's knob sequence. With abortOnError it
// stops at the first failure and reports the failed knob; the rollback
// path instead pushes every knob and reports only whether any failed.
func (m *Manager) writeKnobs(ctx context.Context, p profile.Profile, abortOnError bool) (Knob, error) {
	var firstErr error
	var firstKnob Knob

	for _, w := range knobSequence(p) {
		if err := m.port.Write(ctx, w.knob, w.value); err != nil {
			if abortOnError {
				return w.knob, err
			}
			if firstErr == nil {
				firstErr, firstKnob = err, w.knob
			}
		}
	}

	return firstKnob, firstErr
}

func knobSequence(p profile.Profile) []knobWrite {
	boost := 0
	if p.BoostEnabled {
		boost = 1
	}

	if p.AMD != nil {
		a := p.AMD
		return []knobWrite{
			{KnobTctlTemp, a.TctlTemp},
			{KnobSTAPMLimit, a.STAPMLimit},
			{KnobSlowLimit, a.SlowLimit},
			{KnobFastLimit, a.FastLimit},
			{KnobVRMCurrent, a.VRMCurrent},
			{KnobVRMMaxCurrent, a.VRMMaxCurrent},
			{KnobVRMSoCCurrent, a.VRMSoCCurrent},
			{KnobVRMSoCMaxCurrent, a.VRMSoCMaxCurrent},
			{KnobBoost, boost},
		}
	}

	i := p.Intel
	return []knobWrite{
		{KnobTau, i.Tau},
		{KnobPL1, i.PL1},
		{KnobPL2, i.PL2},
		{KnobCPUCoreOffset, i.CPUCoreOffset},
		{KnobGPUCoreOffset, i.GPUCoreOffset},
		{KnobMaxFrequency, i.MaxFrequency},
		{KnobBoost, boost},
	}
}

func (m *Manager) setState(s State) {
	m.stateMu.Lock()
	m.state = s
	m.stateMu.Unlock()
}

// FanMode returns the active fan mode.
func (m *Manager) FanMode() profile.FanMode {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	return m.fanMode
}

// SetFanMode toggles between curve-driven and direct duty control.
// Independent of profile application. Switching back to auto forces the
// next tick to rewrite the duty.
func (m *Manager) SetFanMode(mode profile.FanMode) {
	m.stateMu.Lock()
	m.fanMode = mode
	m.stateMu.Unlock()

	if mode == profile.FanAuto {
		m.hwMu.Lock()
		m.lastDuty = -1
		m.hwMu.Unlock()
	}

	logger.Info().Str("fan_mode", string(mode)).Msg("Fan mode changed")
}

// SetFanDuty writes a duty cycle directly. Only valid in manual mode.
func (m *Manager) SetFanDuty(ctx context.Context, duty int) error {
	errFactory := errors.New()

	if m.FanMode() != profile.FanManual {
		return errFactory.New(ErrInvalidFanMode)
	}

	duty = clamp(duty, 0, 100)

	m.hwMu.Lock()
	defer m.hwMu.Unlock()

	if err := m.port.Write(ctx, KnobFanDuty, duty); err != nil {
		return err
	}
	m.lastDuty = duty

	return nil
}

// AdjustFans runs the closed fan loop for one telemetry tick. In auto
// mode it evaluates the active profile's curve against the control
// temperature and writes the duty, with hysteresis. The hardware mutex
// guarantees this never observes a profile mid-application.
func (m *Manager) AdjustFans(ctx context.Context, snap telemetry.Snapshot) error {
	m.stateMu.RLock()
	mode := m.fanMode
	cur := m.current
	has := m.hasCurrent
	m.stateMu.RUnlock()

	if mode != profile.FanAuto || !has {
		return nil
	}

	temp, ok := controlTemperature(snap)
	if !ok {
		// No usable temperature this tick; keep the last duty.
		return nil
	}

	duty := cur.Curve.DutyFor(temp)

	// An in-flight apply holds the lock for the duration of its hardware
	// writes. Skip this tick's decision rather than stalling the sampler;
	// the next tick re-evaluates against the settled profile.
	if !m.hwMu.TryLock() {
		return nil
	}
	defer m.hwMu.Unlock()

	if m.lastDuty >= 0 && abs(duty-m.lastDuty) <= dutyHysteresis {
		return nil
	}

	if err := m.port.Write(ctx, KnobFanDuty, duty); err != nil {
		return err
	}

	logger.Debug().
		Float64("temperature", temp).
		Int("duty", duty).
		Int("last_duty", m.lastDuty).
		Msg("Fan duty adjusted")
	m.lastDuty = duty

	return nil
}

// controlTemperature picks the curve input: the highest of the CPU and
// discrete-GPU temperatures that read successfully. The conservative
// choice, since the curve tables are keyed on CPU temperature.
func controlTemperature(snap telemetry.Snapshot) (float64, bool) {
	temp, ok := 0.0, false

	if snap.CPUTemp.OK {
		temp, ok = snap.CPUTemp.Value, true
	}
	if snap.DGPU != nil && snap.DGPU.Temp.OK && snap.DGPU.Temp.Value > temp {
		temp, ok = snap.DGPU.Temp.Value, true
	}

	return temp, ok
}

// ReleaseFans hands fan control back to the embedded controller. Used
// on shutdown so the machine is never left on a stale manual duty.
func (m *Manager) ReleaseFans(ctx context.Context) error {
	m.hwMu.Lock()
	defer m.hwMu.Unlock()

	m.lastDuty = -1

	return m.port.Write(ctx, KnobFanAuto, 0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
