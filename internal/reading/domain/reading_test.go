package reading_test

import (
	"errors"
	"testing"
	"time"

	reading "printfleet-cloud/internal/reading/domain"
)

func TestNormalizeDeviceKey(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want string
	}{
		{"aa:bb:cc:dd:ee:ff", "AABBCCDDEEFF"},
		{"AA-BB-CC-DD-EE-FF", "AABBCCDDEEFF"},
		{"aabb.ccdd.eeff", "AABBCCDDEEFF"},
		{"  aabbccddeeff  ", "AABBCCDDEEFF"},
		{"0012F0c4D2e1", "0012F0C4D2E1"},
	} {
		got, err := reading.NormalizeDeviceKey(tc.raw)
		if err != nil {
			t.Fatalf("normalize %q: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("normalize %q: got=%s want=%s", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeDeviceKey_Invalid(t *testing.T) {
	if _, err := reading.NormalizeDeviceKey(""); !errors.Is(err, reading.ErrEmptyDeviceKey) {
		t.Fatalf("empty key: got %v", err)
	}
	if _, err := reading.NormalizeDeviceKey(" :-. "); !errors.Is(err, reading.ErrEmptyDeviceKey) {
		t.Fatalf("separator-only key: got %v", err)
	}
	if _, err := reading.NormalizeDeviceKey("AABBCCDDEEGG"); !errors.Is(err, reading.ErrInvalidDeviceKey) {
		t.Fatalf("non-hex key: got %v", err)
	}
}

func TestTimeFilterMatches(t *testing.T) {
	day := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)
	onDay := day.Add(12 * time.Hour)
	lastSecond := day.Add(24*time.Hour - time.Second)
	nextDay := day.AddDate(0, 0, 1)
	prevDay := day.Add(-time.Second)

	cases := []struct {
		name   string
		filter reading.TimeFilter
		ts     time.Time
		want   bool
	}{
		{"exact day start", reading.TimeFilter{Kind: reading.FilterExactDay, Day: day}, day, true},
		{"exact day noon", reading.TimeFilter{Kind: reading.FilterExactDay, Day: day}, onDay, true},
		{"exact day last second", reading.TimeFilter{Kind: reading.FilterExactDay, Day: day}, lastSecond, true},
		{"exact day next day", reading.TimeFilter{Kind: reading.FilterExactDay, Day: day}, nextDay, false},
		{"strictly after same day", reading.TimeFilter{Kind: reading.FilterStrictlyAfter, Day: day}, lastSecond, false},
		{"strictly after next day", reading.TimeFilter{Kind: reading.FilterStrictlyAfter, Day: day}, nextDay, true},
		{"strictly before prev", reading.TimeFilter{Kind: reading.FilterStrictlyBefore, Day: day}, prevDay, true},
		{"strictly before same day", reading.TimeFilter{Kind: reading.FilterStrictlyBefore, Day: day}, day, false},
		{"at or before same day", reading.TimeFilter{Kind: reading.FilterAtOrBefore, Day: day}, lastSecond, true},
		{"at or before next day", reading.TimeFilter{Kind: reading.FilterAtOrBefore, Day: day}, nextDay, false},
	}
	for _, tc := range cases {
		if got := tc.filter.Matches(tc.ts); got != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestTimeFilterValidate(t *testing.T) {
	if err := (reading.TimeFilter{Kind: reading.FilterExactDay}).Validate(); !errors.Is(err, reading.ErrInvalidTimeFilter) {
		t.Fatalf("zero day: got %v", err)
	}
	if err := (reading.TimeFilter{Kind: reading.FilterKind(99), Day: time.Now()}).Validate(); !errors.Is(err, reading.ErrInvalidTimeFilter) {
		t.Fatalf("unknown kind: got %v", err)
	}
}
