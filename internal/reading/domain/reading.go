package reading

import (
	"strings"
	"time"
)

// MeterReading is a single cumulative counter snapshot for one device.
// Readings are append-only and immutable; counters are lifetime page totals,
// never per-period counts.
type MeterReading struct {
	DeviceKey       string
	Timestamp       time.Time
	TotalBlackWhite int64
	TotalColor      int64
}

// NormalizeDeviceKey canonicalizes a hardware identifier: separators stripped,
// uppercased hex. Readings from every import path are correlated through this
// form, so it is the only accepted lookup key.
func NormalizeDeviceKey(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyDeviceKey
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'F':
			b.WriteRune(r)
		case r >= 'a' && r <= 'f':
			b.WriteRune(r - ('a' - 'A'))
		case r == ':' || r == '-' || r == '.' || r == ' ':
			// separator, dropped
		default:
			return "", ErrInvalidDeviceKey
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyDeviceKey
	}
	return b.String(), nil
}
