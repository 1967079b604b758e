package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	reading "printfleet-cloud/internal/reading/domain"
)

// BoundaryRole selects which side of a billing period a resolution targets.
type BoundaryRole int

const (
	// RoleStart resolves the reading opening a period.
	RoleStart BoundaryRole = iota
	// RoleEnd resolves the reading closing a period.
	RoleEnd
)

// String returns the role name for logs and reports.
func (r BoundaryRole) String() string {
	switch r {
	case RoleStart:
		return "start"
	case RoleEnd:
		return "end"
	}
	return "unknown"
}

// PeriodResolver maps a (device, boundary day, role) triple to at most one
// canonical meter reading. Reading cadence is irregular, so boundaries are
// approximated by a fixed fallback search; the tier order is the whole
// contract — identical inputs against an unchanged store must always pick the
// same reading, or invoices drift between runs.
//
// Start boundaries: exact day (earliest wins), then the first reading after
// the day, then the last reading before it. End boundaries: exact day (latest
// wins), then the last reading at or before the day's end — never later, so a
// period can not reach into the next cycle.
type PeriodResolver struct {
	store reading.Store
}

// NewPeriodResolver constructs a resolver.
func NewPeriodResolver(store reading.Store) (*PeriodResolver, error) {
	if store == nil {
		return nil, errors.New("period resolver: nil reading store")
	}
	return &PeriodResolver{store: store}, nil
}

// ResolveBoundary finds the canonical boundary reading. A nil reading with a
// nil error means no reading exists for the device around the boundary, which
// is a normal outcome for new devices. Store errors propagate as errors and
// are never folded into absence.
func (r *PeriodResolver) ResolveBoundary(ctx context.Context, deviceKey string, boundaryDay time.Time, role BoundaryRole) (*reading.MeterReading, error) {
	return r.ResolveBoundaryCached(ctx, nil, deviceKey, boundaryDay, role)
}

// ResolveBoundaryCached resolves through an optional call-scoped cache. The
// cache is supplied by the caller (e.g. one per fleet report) and caches
// absence as well as hits.
func (r *PeriodResolver) ResolveBoundaryCached(ctx context.Context, cache *BoundaryCache, deviceKey string, boundaryDay time.Time, role BoundaryRole) (*reading.MeterReading, error) {
	key, err := reading.NormalizeDeviceKey(deviceKey)
	if err != nil {
		return nil, err
	}
	if boundaryDay.IsZero() {
		return nil, ErrInvalidBoundaryDay
	}
	if role != RoleStart && role != RoleEnd {
		return nil, ErrInvalidBoundaryRole
	}

	if cache != nil {
		if cached, ok := cache.lookup(key, boundaryDay, role); ok {
			return cached, nil
		}
	}

	resolved, err := r.resolve(ctx, key, boundaryDay, role)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.store(key, boundaryDay, role, resolved)
	}
	return resolved, nil
}

// resolve runs the tiered search. Tiers are strictly sequential: a later tier
// is only queried after the previous one came back empty.
func (r *PeriodResolver) resolve(ctx context.Context, key string, day time.Time, role BoundaryRole) (*reading.MeterReading, error) {
	tiers := startTiers(day)
	if role == RoleEnd {
		tiers = endTiers(day)
	}
	for _, tier := range tiers {
		found, err := r.queryOne(ctx, key, tier.filter, tier.order)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}
	return nil, nil
}

type tierQuery struct {
	filter reading.TimeFilter
	order  reading.Order
}

func startTiers(day time.Time) []tierQuery {
	return []tierQuery{
		{reading.TimeFilter{Kind: reading.FilterExactDay, Day: day}, reading.OrderAsc},
		{reading.TimeFilter{Kind: reading.FilterStrictlyAfter, Day: day}, reading.OrderAsc},
		{reading.TimeFilter{Kind: reading.FilterStrictlyBefore, Day: day}, reading.OrderDesc},
	}
}

func endTiers(day time.Time) []tierQuery {
	return []tierQuery{
		{reading.TimeFilter{Kind: reading.FilterExactDay, Day: day}, reading.OrderDesc},
		{reading.TimeFilter{Kind: reading.FilterAtOrBefore, Day: day}, reading.OrderDesc},
	}
}

func (r *PeriodResolver) queryOne(ctx context.Context, key string, filter reading.TimeFilter, order reading.Order) (*reading.MeterReading, error) {
	rows, err := r.store.QueryReadings(ctx, key, filter, order, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	found := rows[0]
	return &found, nil
}

// BoundaryCache memoizes boundary resolutions for the duration of one caller
// operation. It is always explicit and call-scoped, never a package global,
// so the resolver itself stays pure.
type BoundaryCache struct {
	mu      sync.RWMutex
	entries map[boundaryCacheKey]*reading.MeterReading
}

type boundaryCacheKey struct {
	deviceKey string
	day       string
	role      BoundaryRole
}

// NewBoundaryCache constructs an empty cache.
func NewBoundaryCache() *BoundaryCache {
	return &BoundaryCache{entries: make(map[boundaryCacheKey]*reading.MeterReading)}
}

func cacheKeyFor(deviceKey string, day time.Time, role BoundaryRole) boundaryCacheKey {
	return boundaryCacheKey{deviceKey: deviceKey, day: day.UTC().Format("20060102"), role: role}
}

func (c *BoundaryCache) lookup(deviceKey string, day time.Time, role BoundaryRole) (*reading.MeterReading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.entries[cacheKeyFor(deviceKey, day, role)]
	return cached, ok
}

func (c *BoundaryCache) store(deviceKey string, day time.Time, role BoundaryRole, resolved *reading.MeterReading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKeyFor(deviceKey, day, role)] = resolved
}
