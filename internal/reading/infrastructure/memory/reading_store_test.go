package memory_test

import (
	"context"
	"testing"
	"time"

	reading "printfleet-cloud/internal/reading/domain"
	"printfleet-cloud/internal/reading/infrastructure/memory"
)

func TestQueryReadings_OrderAndLimit(t *testing.T) {
	day := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)
	store := memory.NewReadingStore()
	store.Add(
		reading.MeterReading{DeviceKey: "AABB", Timestamp: day.Add(15 * time.Hour), TotalBlackWhite: 3},
		reading.MeterReading{DeviceKey: "AABB", Timestamp: day.Add(5 * time.Hour), TotalBlackWhite: 1},
		reading.MeterReading{DeviceKey: "AABB", Timestamp: day.Add(10 * time.Hour), TotalBlackWhite: 2},
		reading.MeterReading{DeviceKey: "CCDD", Timestamp: day.Add(6 * time.Hour), TotalBlackWhite: 9},
	)
	filter := reading.TimeFilter{Kind: reading.FilterExactDay, Day: day}

	asc, err := store.QueryReadings(context.Background(), "AABB", filter, reading.OrderAsc, 10)
	if err != nil {
		t.Fatalf("query asc: %v", err)
	}
	if len(asc) != 3 || asc[0].TotalBlackWhite != 1 || asc[2].TotalBlackWhite != 3 {
		t.Fatalf("ascending order mismatch: %+v", asc)
	}

	desc, err := store.QueryReadings(context.Background(), "AABB", filter, reading.OrderDesc, 1)
	if err != nil {
		t.Fatalf("query desc: %v", err)
	}
	if len(desc) != 1 || desc[0].TotalBlackWhite != 3 {
		t.Fatalf("descending limit mismatch: %+v", desc)
	}
}

func TestQueryReadings_InvalidArguments(t *testing.T) {
	store := memory.NewReadingStore()
	filter := reading.TimeFilter{Kind: reading.FilterExactDay, Day: time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)}

	if _, err := store.QueryReadings(context.Background(), "", filter, reading.OrderAsc, 1); err == nil {
		t.Fatal("expected error for empty device key")
	}
	if _, err := store.QueryReadings(context.Background(), "AABB", reading.TimeFilter{}, reading.OrderAsc, 1); err == nil {
		t.Fatal("expected error for invalid filter")
	}
	if _, err := store.QueryReadings(context.Background(), "AABB", filter, reading.OrderAsc, 0); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}
