package core_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/avask/framectl/internal/core"
	"codeberg.org/avask/framectl/internal/display"
	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/platform"
	"codeberg.org/avask/framectl/internal/power"
	"codeberg.org/avask/framectl/internal/profile"
	"codeberg.org/avask/framectl/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPort struct {
	mu      sync.Mutex
	writes  []power.Knob
	blockOn chan struct{}
}

func (p *recordingPort) Write(_ context.Context, knob power.Knob, _ int) error {
	p.mu.Lock()
	blockOn := p.blockOn
	p.mu.Unlock()

	if blockOn != nil {
		<-blockOn
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.writes = append(p.writes, knob)

	return nil
}

func (p *recordingPort) setBlock(ch chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.blockOn = ch
}

func (p *recordingPort) count(knob power.Knob) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, k := range p.writes {
		if k == knob {
			n++
		}
	}

	return n
}

type fakeDisplayBackend struct {
	rates []int
	auto  int
}

func (b *fakeDisplayBackend) SetRefreshRate(_ context.Context, hz int) error {
	b.rates = append(b.rates, hz)
	return nil
}

func (b *fakeDisplayBackend) SetAutoRefresh(_ context.Context) error {
	b.auto++
	return nil
}

func (b *fakeDisplayBackend) SetBrightness(_ context.Context, _ int) error { return nil }

type fakeSensor struct {
	value float64
}

func (f fakeSensor) Load(_ context.Context) (float64, error)        { return f.value, nil }
func (f fakeSensor) Temperature(_ context.Context) (float64, error) { return f.value, nil }
func (f fakeSensor) UsedPercent(_ context.Context) (float64, error) { return f.value, nil }

type fakeBattery struct{}

func (fakeBattery) Read(_ context.Context) (telemetry.BatteryReadings, error) {
	return telemetry.BatteryReadings{TimeRemaining: -1}, nil
}

type memoryHistory struct {
	mu     sync.Mutex
	stored int
	closed bool
}

func (h *memoryHistory) Store(_ context.Context, _ telemetry.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stored++
	return nil
}

func (h *memoryHistory) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

type fixture struct {
	core    *core.Core
	port    *recordingPort
	backend *fakeDisplayBackend
	history *memoryHistory
}

func newFixture(t *testing.T, id platform.Identity, events core.Events) *fixture {
	t.Helper()

	caps, ok := platform.Lookup(id)
	require.True(t, ok)

	port := &recordingPort{}
	backend := &fakeDisplayBackend{}
	history := &memoryHistory{}

	sensors := telemetry.Sensors{
		CPU:     fakeSensor{value: 70},
		Memory:  fakeSensor{value: 50},
		IGPU:    fakeSensor{value: 40},
		Battery: fakeBattery{},
	}

	c := core.New(
		caps,
		profile.DefaultOverrides(),
		power.NewManager(caps, port),
		display.NewController(caps, backend),
		sensors,
		history,
		events,
	)

	return &fixture{core: c, port: port, backend: backend, history: history}
}

func TestApplyProfileFiresEvent(t *testing.T) {
	var applied []string
	events := core.Events{
		OnProfileApplied: func(p profile.Profile) { applied = append(applied, p.Name) },
	}
	f := newFixture(t, platform.AMD16, events)

	require.NoError(t, f.core.ApplyProfile(context.Background(), "boost"))

	assert.Equal(t, []string{"boost"}, applied)

	cur, ok := f.core.CurrentProfile()
	require.True(t, ok)
	assert.Equal(t, "boost", cur.Name)
	assert.True(t, cur.BoostEnabled)
}

func TestApplyUnknownProfileFiresFailure(t *testing.T) {
	var failedName string
	var failedErr error
	events := core.Events{
		OnProfileApplyFailed: func(name string, err error) { failedName, failedErr = name, err },
	}
	f := newFixture(t, platform.AMD16, events)

	err := f.core.ApplyProfile(context.Background(), "turbo")
	require.Error(t, err)
	assert.Equal(t, profile.ErrUnknownProfile, errors.CodeOf(err))
	assert.Equal(t, "turbo", failedName)
	assert.Equal(t, err, failedErr)

	_, ok := f.core.CurrentProfile()
	assert.False(t, ok, "Nothing applied after a resolve failure")
}

func TestResolveProfileDoesNotApply(t *testing.T) {
	f := newFixture(t, platform.Intel13, core.Events{})

	p, err := f.core.ResolveProfile("silent")
	require.NoError(t, err)
	assert.Equal(t, "silent", p.Name)
	assert.False(t, p.BoostEnabled)

	f.port.mu.Lock()
	defer f.port.mu.Unlock()
	assert.Empty(t, f.port.writes, "Resolve must not touch hardware")
}

func TestSamplingDrivesFansHistoryAndEvents(t *testing.T) {
	metrics := make(chan telemetry.Snapshot, 4)
	events := core.Events{
		OnMetrics: func(s telemetry.Snapshot) {
			select {
			case metrics <- s:
			default:
			}
		},
	}
	f := newFixture(t, platform.AMD16, events)

	require.NoError(t, f.core.ApplyProfile(context.Background(), "balanced"))

	f.core.StartSampling(context.Background(), telemetry.MinInterval)
	defer f.core.StopSampling()

	select {
	case snap := <-metrics:
		assert.True(t, snap.CPUTemp.OK)
	case <-time.After(2 * time.Second):
		t.Fatal("No metrics published")
	}

	// The 70C fake temperature drives the default curve.
	require.Eventually(t, func() bool {
		return f.port.count(power.KnobFanDuty) > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		f.history.mu.Lock()
		defer f.history.mu.Unlock()
		return f.history.stored > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSamplingSurvivesBlockedApply(t *testing.T) {
	var published int64
	events := core.Events{
		OnMetrics: func(telemetry.Snapshot) { atomic.AddInt64(&published, 1) },
	}
	f := newFixture(t, platform.AMD16, events)

	require.NoError(t, f.core.ApplyProfile(context.Background(), "silent"))

	// Wedge the next apply inside a hardware write.
	blockOn := make(chan struct{})
	f.port.setBlock(blockOn)

	applyDone := make(chan error, 1)
	go func() {
		applyDone <- f.core.ApplyProfile(context.Background(), "boost")
	}()

	f.core.StartSampling(context.Background(), telemetry.MinInterval)
	defer f.core.StopSampling()

	// Ticks must keep publishing while the apply is blocked.
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&published) >= 3
	}, 2*time.Second, 10*time.Millisecond, "sampling stalled behind a blocked hardware write")

	f.port.setBlock(nil)
	close(blockOn)
	require.NoError(t, <-applyDone)

	cur, ok := f.core.CurrentProfile()
	require.True(t, ok)
	assert.Equal(t, "boost", cur.Name)
}

func TestSampleMetricsOneShot(t *testing.T) {
	f := newFixture(t, platform.AMD13, core.Events{})

	snap, ok := f.core.SampleMetrics(context.Background())
	require.True(t, ok)

	assert.True(t, snap.CPULoad.OK)
	assert.Nil(t, snap.DGPU, "13-inch boards have no discrete GPU")
}

func TestSetRefreshRateThroughCore(t *testing.T) {
	f := newFixture(t, platform.AMD16, core.Events{})

	require.NoError(t, f.core.SetRefreshRate(context.Background(), display.Rate(165)))
	assert.Equal(t, []int{165}, f.backend.rates)

	err := f.core.SetRefreshRate(context.Background(), display.Rate(240))
	require.Error(t, err)
	assert.Equal(t, display.ErrUnsupportedRate, errors.CodeOf(err))
}

func TestShutdownReleasesFansAndClosesHistory(t *testing.T) {
	f := newFixture(t, platform.AMD16, core.Events{})

	f.core.StartSampling(context.Background(), time.Second)
	f.core.Shutdown(context.Background())

	assert.Equal(t, 1, f.port.count(power.KnobFanAuto))

	f.history.mu.Lock()
	defer f.history.mu.Unlock()
	assert.True(t, f.history.closed)
}
