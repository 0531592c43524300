// Package display controls the internal panel's refresh rate and
// backlight brightness. Validation happens here against the platform
// catalog; the backend only ever sees values it can apply.
package display

import (
	"context"

	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/logger"
	"codeberg.org/avask/framectl/internal/platform"
)

// RefreshRequest selects either the panel's preferred mode or an
// explicit rate. Construct with Auto or Rate.
type RefreshRequest struct {
	auto bool
	rate int
}

// Auto requests the panel's preferred refresh mode.
func Auto() RefreshRequest {
	return RefreshRequest{auto: true}
}

// Rate requests an explicit refresh rate in Hz.
func Rate(hz int) RefreshRequest {
	return RefreshRequest{rate: hz}
}

// IsAuto reports whether the request selects the preferred mode.
func (r RefreshRequest) IsAuto() bool {
	return r.auto
}

// Hz returns the explicit rate; meaningless when IsAuto.
func (r RefreshRequest) Hz() int {
	return r.rate
}

// Backend applies validated display settings to the hardware.
type Backend interface {
	SetRefreshRate(ctx context.Context, hz int) error
	SetAutoRefresh(ctx context.Context) error
	SetBrightness(ctx context.Context, percent int) error
}

// Controller validates display requests against the platform
// capabilities and forwards them to a backend.
type Controller struct {
	caps    platform.Capabilities
	backend Backend
}

func NewController(caps platform.Capabilities, backend Backend) *Controller {
	return &Controller{caps: caps, backend: backend}
}

// SetRefresh applies a refresh request. An explicit rate above the
// panel's maximum is rejected with the rate in the error data; auto is
// handed to the backend as its own mode, not translated to a number
// here.
func (c *Controller) SetRefresh(ctx context.Context, req RefreshRequest) error {
	errFactory := errors.New()

	if req.IsAuto() {
		if err := c.backend.SetAutoRefresh(ctx); err != nil {
			return err
		}
		logger.Info().Msg("Refresh rate set to auto")

		return nil
	}

	if req.Hz() <= 0 || req.Hz() > c.caps.MaxRefreshRate {
		return errFactory.WithData(ErrUnsupportedRate, req.Hz())
	}

	if err := c.backend.SetRefreshRate(ctx, req.Hz()); err != nil {
		return err
	}
	logger.Info().Int("rate", req.Hz()).Msg("Refresh rate set")

	return nil
}

// SetBrightness sets the backlight to a percentage. Out-of-range input
// is clamped, never rejected.
func (c *Controller) SetBrightness(ctx context.Context, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	if err := c.backend.SetBrightness(ctx, percent); err != nil {
		return err
	}
	logger.Debug().Int("brightness", percent).Msg("Brightness set")

	return nil
}
