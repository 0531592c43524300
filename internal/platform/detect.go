package platform

import (
	"strings"

	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/logger"
	"github.com/siderolabs/go-smbios/smbios"
)

// SystemReader supplies the firmware identification strings used for
// model detection. The production implementation reads SMBIOS tables;
// tests substitute fixed strings.
type SystemReader interface {
	SystemInfo() (manufacturer, product string, err error)
}

type smbiosReader struct{}

// NewSMBIOSReader returns a SystemReader backed by the local SMBIOS
// System Information structure.
func NewSMBIOSReader() SystemReader {
	return smbiosReader{}
}

func (smbiosReader) SystemInfo() (string, string, error) {
	errFactory := errors.New()

	s, err := smbios.New()
	if err != nil {
		return "", "", errFactory.Wrap(ErrSMBIOSRead, err)
	}

	return s.SystemInformation.Manufacturer, s.SystemInformation.ProductName, nil
}

// Framework DMI product names as shipped by the firmware. Matching is
// on substrings because the firmware revision string varies.
var productMatches = []struct {
	substrings []string
	identity   Identity
}{
	{[]string{"Laptop 16", "AMD"}, AMD16},
	{[]string{"Laptop 13", "AMD"}, AMD13},
	{[]string{"13th Gen Intel"}, Intel13},
}

// Detect identifies the concrete platform from firmware identification
// strings. It runs once at startup; an unrecognized board yields
// ErrNotFound, which callers must treat as a startup abort rather than
// falling back to a default schema.
func Detect(r SystemReader) (Capabilities, error) {
	errFactory := errors.New()

	manufacturer, product, err := r.SystemInfo()
	if err != nil {
		return Capabilities{}, err
	}

	logger.Debug().
		Str("manufacturer", manufacturer).
		Str("product", product).
		Msg("Read system identification")

	if !strings.Contains(strings.ToLower(manufacturer), "framework") {
		return Capabilities{}, errFactory.WithData(ErrNotFound, manufacturer)
	}

	for _, m := range productMatches {
		if containsAll(product, m.substrings) {
			caps, _ := Lookup(m.identity)
			logger.Info().
				Str("platform", m.identity.String()).
				Str("product", product).
				Msg("Detected platform")

			return caps, nil
		}
	}

	return Capabilities{}, errFactory.WithData(ErrNotFound, product)
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}

	return true
}
