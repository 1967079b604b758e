package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	reading "printfleet-cloud/internal/reading/domain"
)

const (
	defaultCurrentTable = "meter_readings"
	defaultArchiveTable = "meter_readings_archive"
)

// ReadingStore is a Postgres reading store. The current and archived reading
// tables are merged with a UNION ALL so callers query one logical stream.
type ReadingStore struct {
	db           *sql.DB
	currentTable string
	archiveTable string
}

// StoreOption configures the reading store.
type StoreOption func(*ReadingStore)

// WithCurrentTable overrides the current readings table name.
func WithCurrentTable(table string) StoreOption {
	return func(s *ReadingStore) {
		if s != nil && table != "" {
			s.currentTable = table
		}
	}
}

// WithArchiveTable overrides the archived readings table name.
func WithArchiveTable(table string) StoreOption {
	return func(s *ReadingStore) {
		if s != nil && table != "" {
			s.archiveTable = table
		}
	}
}

// NewReadingStore constructs a store with default table names.
func NewReadingStore(db *sql.DB, opts ...StoreOption) *ReadingStore {
	store := &ReadingStore{db: db, currentTable: defaultCurrentTable, archiveTable: defaultArchiveTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// QueryReadings returns readings for a device matching the time filter.
func (s *ReadingStore) QueryReadings(ctx context.Context, deviceKey string, filter reading.TimeFilter, order reading.Order, limit int) ([]reading.MeterReading, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("reading store: nil db")
	}
	if deviceKey == "" {
		return nil, reading.ErrEmptyDeviceKey
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, reading.ErrInvalidLimit
	}

	predicate, args := timePredicate(filter)
	direction := "ASC"
	if order == reading.OrderDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
SELECT device_key, taken_at, total_black_white, total_color
FROM (
	SELECT device_key, taken_at, total_black_white, total_color FROM %s WHERE device_key = $1
	UNION ALL
	SELECT device_key, taken_at, total_black_white, total_color FROM %s WHERE device_key = $1
) merged
WHERE %s
ORDER BY taken_at %s
LIMIT %d`, s.currentTable, s.archiveTable, predicate, direction, limit)

	queryArgs := append([]any{deviceKey}, args...)
	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]reading.MeterReading, 0, limit)
	for rows.Next() {
		var r reading.MeterReading
		var takenAt time.Time
		if err := rows.Scan(&r.DeviceKey, &takenAt, &r.TotalBlackWhite, &r.TotalColor); err != nil {
			return nil, err
		}
		r.Timestamp = takenAt.UTC()
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

func timePredicate(filter reading.TimeFilter) (string, []any) {
	dayStart, dayEnd := filter.DayBounds()
	switch filter.Kind {
	case reading.FilterExactDay:
		return "taken_at >= $2 AND taken_at < $3", []any{dayStart, dayEnd}
	case reading.FilterStrictlyAfter:
		return "taken_at >= $2", []any{dayEnd}
	case reading.FilterStrictlyBefore:
		return "taken_at < $2", []any{dayStart}
	case reading.FilterAtOrBefore:
		return "taken_at < $2", []any{dayEnd}
	}
	return "FALSE", nil
}
