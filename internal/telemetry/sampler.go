package telemetry

import (
	"context"
	"sync"
	"time"

	"codeberg.org/avask/framectl/internal/logger"
)

const (
	// MinInterval and MaxInterval bound the sampling period. Requests
	// outside the bounds are clamped, never rejected.
	MinInterval = 100 * time.Millisecond
	MaxInterval = 10 * time.Second

	DefaultInterval = time.Second
)

// PublishFunc receives every completed snapshot. It is called from the
// sampler goroutine, so it must not block for long.
type PublishFunc func(Snapshot)

// Sampler periodically reads all sensors into a Snapshot. A reading
// that fails degrades to OK=false on its own field; the tick still
// completes and publishes. A tick cancelled mid-flight is discarded
// whole, so Latest never moves to a partial snapshot.
type Sampler struct {
	sensors Sensors
	publish PublishFunc

	mu       sync.RWMutex
	latest   Snapshot
	hasValue bool

	interval chan time.Duration

	runstate sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSampler builds a sampler over the given sensor set. publish may be
// nil when only pull-based access through Latest is needed.
func NewSampler(sensors Sensors, publish PublishFunc) *Sampler {
	return &Sampler{
		sensors:  sensors,
		publish:  publish,
		interval: make(chan time.Duration, 1),
	}
}

// ClampInterval bounds d to the supported sampling range.
func ClampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}

// Start launches the sampling loop. Calling Start on a running sampler
// is a no-op. One immediate sample runs before the first tick so Latest
// is populated right away.
func (s *Sampler) Start(ctx context.Context, interval time.Duration) {
	s.runstate.Lock()
	defer s.runstate.Unlock()

	if s.cancel != nil {
		return
	}

	interval = ClampInterval(interval)

	// A SetInterval issued while stopped must not override this Start.
	select {
	case <-s.interval:
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, interval)
}

// Stop halts the sampling loop and waits for the in-flight tick, if
// any, to finish or discard.
func (s *Sampler) Stop() {
	s.runstate.Lock()
	defer s.runstate.Unlock()

	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// SetInterval changes the sampling period of a running loop. The tick
// already in flight completes on the old schedule; the new period takes
// effect from the next tick.
func (s *Sampler) SetInterval(d time.Duration) {
	d = ClampInterval(d)

	// Replace any pending request so only the most recent one wins.
	for {
		select {
		case s.interval <- d:
			return
		case <-s.interval:
		}
	}
}

// Latest returns a copy of the most recent snapshot. ok is false until
// the first tick completes.
func (s *Sampler) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.latest
	if snap.DGPU != nil {
		dgpu := *snap.DGPU
		snap.DGPU = &dgpu
	}

	return snap, s.hasValue
}

func (s *Sampler) loop(ctx context.Context, interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-s.interval:
			if d != interval {
				interval = d
				ticker.Reset(interval)
				logger.Debug().Dur("interval", interval).Msg("Sampling interval changed")
			}
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sampler) tick(ctx context.Context) {
	snap, ok := s.Sample(ctx)
	if !ok {
		return
	}

	s.mu.Lock()
	s.latest = snap
	s.hasValue = true
	s.mu.Unlock()

	if s.publish != nil {
		s.publish(snap)
	}
}

// Sample reads every sensor once. The bool result is false only when
// ctx was cancelled, in which case the partial snapshot must be thrown
// away.
func (s *Sampler) Sample(ctx context.Context) (Snapshot, bool) {
	snap := Snapshot{Time: time.Now()}

	snap.CPULoad = s.read(ctx, "cpu_load", s.sensors.CPU.Load)
	snap.CPUTemp = s.read(ctx, "cpu_temp", s.sensors.CPU.Temperature)
	snap.RAM = s.read(ctx, "ram", s.sensors.Memory.UsedPercent)

	if s.sensors.IGPU != nil {
		snap.IGPU = GPUReadings{
			Load: s.read(ctx, "igpu_load", s.sensors.IGPU.Load),
			Temp: s.read(ctx, "igpu_temp", s.sensors.IGPU.Temperature),
		}
	}

	if s.sensors.DGPU != nil {
		snap.DGPU = &GPUReadings{
			Load: s.read(ctx, "dgpu_load", s.sensors.DGPU.Load),
			Temp: s.read(ctx, "dgpu_temp", s.sensors.DGPU.Temperature),
		}
	}

	if s.sensors.Battery != nil {
		readings, err := s.sensors.Battery.Read(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("Battery read failed")
			// Normalize here rather than trusting every sensor to pair
			// its error with a well-formed unknown state.
			readings = BatteryReadings{TimeRemaining: -1}
		}
		snap.Battery = readings
	} else {
		snap.Battery = BatteryReadings{TimeRemaining: -1}
	}

	if ctx.Err() != nil {
		return Snapshot{}, false
	}

	return snap, true
}

func (s *Sampler) read(ctx context.Context, name string, fn func(context.Context) (float64, error)) Reading {
	if ctx.Err() != nil {
		return Reading{}
	}

	v, err := fn(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("sensor", name).Msg("Sensor read failed")
		return Reading{}
	}

	return Reading{Value: v, OK: true}
}
