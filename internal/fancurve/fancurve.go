// Package fancurve implements the temperature to fan duty mapping.
// A curve is an ordered breakpoint table; evaluation is pure and does
// no hardware or state access.
package fancurve

import (
	"fmt"
	"strconv"
	"strings"

	"codeberg.org/avask/framectl/internal/errors"
)

const (
	// ErrEmptyCurve means the curve has no breakpoints.
	ErrEmptyCurve = errors.ErrorCode("fancurve_empty")

	// ErrNotMonotonic means temperatures are not strictly increasing or
	// duties decrease along the table.
	ErrNotMonotonic = errors.ErrorCode("fancurve_not_monotonic")

	// ErrInvalidDuty means a duty value is outside 0-100.
	ErrInvalidDuty = errors.ErrorCode("fancurve_invalid_duty")

	// ErrParse means a curve string could not be parsed.
	ErrParse = errors.ErrorCode("fancurve_parse_failed")
)

// Breakpoint pairs a temperature in Celsius with a fan duty percentage.
type Breakpoint struct {
	Temp int
	Duty int
}

// Curve is an immutable breakpoint table. Construct with New or Parse;
// the zero value is invalid.
type Curve struct {
	points []Breakpoint
}

// New validates the breakpoint table and returns a curve. Temperatures
// must be strictly increasing and duties monotonically non-decreasing.
func New(points []Breakpoint) (Curve, error) {
	errFactory := errors.New()

	if len(points) == 0 {
		return Curve{}, errFactory.New(ErrEmptyCurve)
	}

	for i, p := range points {
		if p.Duty < 0 || p.Duty > 100 {
			return Curve{}, errFactory.WithData(ErrInvalidDuty, p.Duty)
		}
		if i == 0 {
			continue
		}
		if p.Temp <= points[i-1].Temp || p.Duty < points[i-1].Duty {
			return Curve{}, errFactory.WithData(ErrNotMonotonic, fmt.Sprintf("%dc:%d%%", p.Temp, p.Duty))
		}
	}

	c := Curve{points: make([]Breakpoint, len(points))}
	copy(c.points, points)

	return c, nil
}

// Parse builds a curve from its compact string form, e.g.
// "30c:0%,40c:10%,50c:20%". The unit suffixes are optional.
func Parse(s string) (Curve, error) {
	errFactory := errors.New()

	var points []Breakpoint
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return Curve{}, errFactory.WithData(ErrParse, pair)
		}

		temp, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(parts[0]), "c"))
		if err != nil {
			return Curve{}, errFactory.Wrap(ErrParse, err)
		}

		duty, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(parts[1]), "%"))
		if err != nil {
			return Curve{}, errFactory.Wrap(ErrParse, err)
		}

		points = append(points, Breakpoint{Temp: temp, Duty: duty})
	}

	return New(points)
}

// Points returns a copy of the breakpoint table.
func (c Curve) Points() []Breakpoint {
	points := make([]Breakpoint, len(c.points))
	copy(points, c.points)

	return points
}

// IsZero reports whether the curve was never constructed.
func (c Curve) IsZero() bool {
	return len(c.points) == 0
}

// String renders the curve in its compact parseable form.
func (c Curve) String() string {
	parts := make([]string, len(c.points))
	for i, p := range c.points {
		parts[i] = fmt.Sprintf("%dc:%d%%", p.Temp, p.Duty)
	}

	return strings.Join(parts, ",")
}

// DutyFor returns the fan duty for a temperature. Between breakpoints
// the duty is linearly interpolated; outside the table's declared range
// it clamps to the first or last duty, never extrapolating.
func (c Curve) DutyFor(temp float64) int {
	if len(c.points) == 0 {
		return 0
	}

	first := c.points[0]
	if temp <= float64(first.Temp) {
		return first.Duty
	}

	last := c.points[len(c.points)-1]
	if temp >= float64(last.Temp) {
		return last.Duty
	}

	for i := 1; i < len(c.points); i++ {
		lo, hi := c.points[i-1], c.points[i]
		if temp > float64(hi.Temp) {
			continue
		}

		span := float64(hi.Temp - lo.Temp)
		frac := (temp - float64(lo.Temp)) / span

		return lo.Duty + int(frac*float64(hi.Duty-lo.Duty)+0.5)
	}

	return last.Duty
}
