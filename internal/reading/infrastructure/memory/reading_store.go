package memory

import (
	"context"
	"sort"
	"sync"

	reading "printfleet-cloud/internal/reading/domain"
)

// ReadingStore is an in-memory reading store for tests and tools.
type ReadingStore struct {
	mu       sync.RWMutex
	readings map[string][]reading.MeterReading
}

// NewReadingStore constructs an empty store.
func NewReadingStore() *ReadingStore {
	return &ReadingStore{readings: make(map[string][]reading.MeterReading)}
}

// Add appends readings for their devices. Keys are stored as given; callers
// normalize before adding.
func (s *ReadingStore) Add(readings ...reading.MeterReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range readings {
		s.readings[r.DeviceKey] = append(s.readings[r.DeviceKey], r)
	}
}

// QueryReadings returns readings for a device matching the time filter.
func (s *ReadingStore) QueryReadings(ctx context.Context, deviceKey string, filter reading.TimeFilter, order reading.Order, limit int) ([]reading.MeterReading, error) {
	_ = ctx
	if deviceKey == "" {
		return nil, reading.ErrEmptyDeviceKey
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, reading.ErrInvalidLimit
	}

	s.mu.RLock()
	all := s.readings[deviceKey]
	matched := make([]reading.MeterReading, 0, len(all))
	for _, r := range all {
		if filter.Matches(r.Timestamp) {
			matched = append(matched, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if order == reading.OrderDesc {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
