package reading

import (
	"context"
	"time"
)

// FilterKind selects how a time filter relates readings to its anchor day.
type FilterKind int

const (
	// FilterExactDay matches readings taken on the anchor calendar day.
	FilterExactDay FilterKind = iota
	// FilterStrictlyAfter matches readings taken after the anchor day ends.
	FilterStrictlyAfter
	// FilterStrictlyBefore matches readings taken before the anchor day starts.
	FilterStrictlyBefore
	// FilterAtOrBefore matches readings taken up to the end of the anchor day.
	FilterAtOrBefore
)

// Order is the timestamp sort direction for a query.
type Order int

const (
	OrderAsc Order = iota
	OrderDesc
)

// TimeFilter anchors a query on one calendar day. Day boundaries are half-open
// UTC intervals: [DayStart, DayStart+24h).
type TimeFilter struct {
	Kind FilterKind
	Day  time.Time
}

// DayBounds returns the UTC half-open interval covering the anchor day.
func (f TimeFilter) DayBounds() (start, end time.Time) {
	day := f.Day.UTC()
	start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Validate reports whether the filter can be evaluated.
func (f TimeFilter) Validate() error {
	if f.Day.IsZero() {
		return ErrInvalidTimeFilter
	}
	switch f.Kind {
	case FilterExactDay, FilterStrictlyAfter, FilterStrictlyBefore, FilterAtOrBefore:
		return nil
	}
	return ErrInvalidTimeFilter
}

// Matches reports whether a timestamp satisfies the filter.
func (f TimeFilter) Matches(ts time.Time) bool {
	start, end := f.DayBounds()
	ts = ts.UTC()
	switch f.Kind {
	case FilterExactDay:
		return !ts.Before(start) && ts.Before(end)
	case FilterStrictlyAfter:
		return !ts.Before(end)
	case FilterStrictlyBefore:
		return ts.Before(start)
	case FilterAtOrBefore:
		return ts.Before(end)
	}
	return false
}

// Store is the single logical source of meter readings. Implementations merge
// the current and archived reading tables so callers see one ordered stream.
// An empty result is a normal outcome, never an error; errors mean the store
// itself could not be queried.
type Store interface {
	QueryReadings(ctx context.Context, deviceKey string, filter TimeFilter, order Order, limit int) ([]MeterReading, error)
}
