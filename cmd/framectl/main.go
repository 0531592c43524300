package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/avask/framectl/internal/config"
	"codeberg.org/avask/framectl/internal/core"
	"codeberg.org/avask/framectl/internal/display"
	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/logger"
	"codeberg.org/avask/framectl/internal/pid"
	"codeberg.org/avask/framectl/internal/platform"
	"codeberg.org/avask/framectl/internal/power"
	"codeberg.org/avask/framectl/internal/profile"
	"codeberg.org/avask/framectl/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("Fatal error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	if level, ok := logger.ParseLevel(cfg.LogLevel); ok && !cfg.Debug && !cfg.Verbose {
		logger.SetLogLevel(level)
	}
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		if errors.CodeOf(err) == errors.ErrAlreadyRunning {
			logger.Error().Msg("Another instance is already running")
		}
		return err
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	// Unknown hardware is a startup abort; there is no safe default set
	// of power limits to guess at.
	caps, err := platform.Detect(platform.NewSMBIOSReader())
	if err != nil {
		return err
	}
	logger.Info().Str("platform", caps.Identity.String()).Msg("Platform detected")

	overrides, err := config.LoadOverrides(cfg.Profiles)
	if err != nil {
		return err
	}

	c, shutdownSensors, err := buildCore(cfg, caps, overrides)
	if err != nil {
		return err
	}
	defer shutdownSensors()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := c.ApplyProfile(ctx, cfg.Profile); err != nil {
		// Startup continues on the hardware's current limits; the user
		// can re-apply once the cause is fixed.
		logger.Warn().Str("profile", cfg.Profile).Err(err).Msg("Startup profile not applied")
	}

	c.StartSampling(ctx, time.Duration(cfg.Interval)*time.Second)

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	c.Shutdown(shutdownCtx)

	logger.Info().Msg("Exiting...")

	return nil
}

func buildCore(cfg *config.Config, caps platform.Capabilities, overrides profile.Overrides) (*core.Core, func(), error) {
	var port power.Port
	if caps.Identity.IsAMD() {
		port = power.NewAMDPort(power.NewExecRunner())
	} else {
		port = power.NewIntelPort(power.NewExecRunner(), "/sys")
	}

	sensors := telemetry.Sensors{
		CPU:     telemetry.NewCPUSensor(),
		Memory:  telemetry.NewMemorySensor(),
		IGPU:    telemetry.NewIGPUSensor("/sys"),
		Battery: telemetry.NewBatterySensor(),
	}

	shutdownSensors := func() {}
	if caps.HasDiscreteGPU {
		dgpu, shutdown, err := telemetry.NewDGPUSensor()
		if err != nil {
			// The discrete GPU may be powered down or the driver absent.
			// Telemetry degrades; everything else still works.
			logger.Warn().Err(err).Msg("Discrete GPU sensor unavailable")
			sensors.DGPU = telemetry.NewUnavailableGPUSensor()
		} else {
			sensors.DGPU = dgpu
			shutdownSensors = func() {
				if err := shutdown(); err != nil {
					logger.Warn().Err(err).Msg("Failed to shut down GPU sensor")
				}
			}
		}
	}

	history, err := telemetry.NewRepository(telemetry.HistoryConfig{
		Enabled: cfg.History.Enabled,
		DBPath:  cfg.History.Database,
	})
	if err != nil {
		shutdownSensors()
		return nil, nil, err
	}

	c := core.New(
		caps,
		overrides,
		power.NewManager(caps, port),
		display.NewController(caps, display.NewSysfsBackend(display.NewExecRunner(), cfg.Output, "/sys")),
		sensors,
		history,
		coreEvents(),
	)

	return c, shutdownSensors, nil
}

// coreEvents wires the outbound callbacks to the log. A tray or GUI
// frontend would hook in here instead.
func coreEvents() core.Events {
	return core.Events{
		OnProfileApplied: func(p profile.Profile) {
			logger.Info().Str("profile", p.Name).Msg("Active profile changed")
		},
		OnProfileApplyFailed: func(name string, err error) {
			logger.Error().Str("profile", name).Err(err).Msg("Profile change failed")
		},
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
