package billing

import "time"

// CycleDay is the calendar day anchoring every billing period. Invoicing runs
// 20th-to-20th; references before the 20th fall into the period that opened
// the previous month.
const CycleDay = 20

// BillingPeriod is the half-open invoicing interval [Start, End), both
// boundaries at 00:00 UTC on the cycle day.
type BillingPeriod struct {
	Start time.Time
	End   time.Time
}

// PeriodForDate derives the billing period containing the reference date.
func PeriodForDate(reference time.Time) (BillingPeriod, error) {
	if reference.IsZero() {
		return BillingPeriod{}, ErrInvalidReferenceDate
	}
	ref := reference.UTC()
	monthOffset := 0
	if ref.Day() < CycleDay {
		monthOffset = -1
	}
	start := time.Date(ref.Year(), ref.Month()+time.Month(monthOffset), CycleDay, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return BillingPeriod{Start: start, End: end}, nil
}

// Contains reports whether a timestamp falls inside the period.
func (p BillingPeriod) Contains(ts time.Time) bool {
	ts = ts.UTC()
	return !ts.Before(p.Start) && ts.Before(p.End)
}

// Key returns a stable identifier for the period, e.g. "20240120-20240220".
func (p BillingPeriod) Key() string {
	return p.Start.Format("20060102") + "-" + p.End.Format("20060102")
}
