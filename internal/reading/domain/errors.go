package reading

import "errors"

var (
	// ErrEmptyDeviceKey is returned when a device key is empty after trimming.
	ErrEmptyDeviceKey = errors.New("reading: empty device key")
	// ErrInvalidDeviceKey is returned when a device key contains non-hex characters.
	ErrInvalidDeviceKey = errors.New("reading: invalid device key")
	// ErrInvalidTimeFilter is returned when a time filter has no anchor day.
	ErrInvalidTimeFilter = errors.New("reading: invalid time filter")
	// ErrInvalidLimit is returned when a query limit is not positive.
	ErrInvalidLimit = errors.New("reading: invalid limit")
)
