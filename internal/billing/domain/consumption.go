package billing

import (
	reading "printfleet-cloud/internal/reading/domain"
)

// ConsumptionResult is the page-count delta between two boundary readings.
// Zero deltas with a missing boundary reading mean "not computable", not
// "nothing printed"; Determined tells the two apart.
type ConsumptionResult struct {
	BlackWhiteDelta int64
	ColorDelta      int64
	StartReading    *reading.MeterReading
	EndReading      *reading.MeterReading
}

// Determined reports whether both boundary readings were available.
func (c ConsumptionResult) Determined() bool {
	return c.StartReading != nil && c.EndReading != nil
}

// ComputeConsumption derives per-channel deltas from two boundary readings.
// Either boundary absent yields zero deltas without error. A counter decrease
// (device replacement or rollover) clamps to zero rather than producing a
// negative bill component; rollovers are not detected, which is a known
// limitation of the billing rules, not a defect to raise.
func ComputeConsumption(start, end *reading.MeterReading) ConsumptionResult {
	result := ConsumptionResult{StartReading: start, EndReading: end}
	if start == nil || end == nil {
		return result
	}
	result.BlackWhiteDelta = clampDelta(end.TotalBlackWhite - start.TotalBlackWhite)
	result.ColorDelta = clampDelta(end.TotalColor - start.TotalColor)
	return result
}

func clampDelta(delta int64) int64 {
	if delta < 0 {
		return 0
	}
	return delta
}
