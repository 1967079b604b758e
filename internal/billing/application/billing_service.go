package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	billing "printfleet-cloud/internal/billing/domain"
)

// PricingProvider resolves the tariff to bill a device under.
type PricingProvider interface {
	PricingFor(ctx context.Context, deviceKey string) (billing.PricingConfig, error)
}

// PeriodReport is one device's consumption over one billing period.
type PeriodReport struct {
	DeviceKey   string
	Period      billing.BillingPeriod
	Consumption billing.ConsumptionResult
}

// DebtReport is a period report priced into a debt figure.
type DebtReport struct {
	PeriodReport
	Debt billing.DebtResult
}

// FleetDeviceError records a device that could not be reported on.
type FleetDeviceError struct {
	DeviceKey string
	Err       error
}

// FleetReport aggregates one billing period across many devices. Devices is
// ordered like the requested keys; failed devices appear in Errors instead.
type FleetReport struct {
	Period               billing.BillingPeriod
	Devices              []DebtReport
	TotalBlackWhiteDelta int64
	TotalColorDelta      int64
	TotalDebt            decimal.Decimal
	Errors               []FleetDeviceError
}

const defaultFleetWorkers = 8

// BillingService composes period derivation, boundary resolution, consumption
// and pricing into the reporting use cases.
type BillingService struct {
	resolver *billing.PeriodResolver
	pricing  PricingProvider
	workers  int
}

// ServiceOption configures the billing service.
type ServiceOption func(*BillingService)

// WithFleetWorkers bounds the parallelism of fleet reports.
func WithFleetWorkers(workers int) ServiceOption {
	return func(s *BillingService) {
		if s != nil && workers > 0 {
			s.workers = workers
		}
	}
}

// NewBillingService constructs the service.
func NewBillingService(resolver *billing.PeriodResolver, pricing PricingProvider, opts ...ServiceOption) (*BillingService, error) {
	if resolver == nil {
		return nil, errors.New("billing service: nil period resolver")
	}
	if pricing == nil {
		return nil, errors.New("billing service: nil pricing provider")
	}
	s := &BillingService{resolver: resolver, pricing: pricing, workers: defaultFleetWorkers}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ConsumptionForPeriod reports one device's consumption for the billing
// period containing the reference date.
func (s *BillingService) ConsumptionForPeriod(ctx context.Context, deviceKey string, referenceDate time.Time) (PeriodReport, error) {
	period, err := billing.PeriodForDate(referenceDate)
	if err != nil {
		return PeriodReport{}, err
	}
	return s.reportForPeriod(ctx, nil, deviceKey, period)
}

// DebtForPeriod reports one device's consumption and priced debt for the
// billing period containing the reference date.
func (s *BillingService) DebtForPeriod(ctx context.Context, deviceKey string, referenceDate time.Time) (DebtReport, error) {
	period, err := billing.PeriodForDate(referenceDate)
	if err != nil {
		return DebtReport{}, err
	}
	return s.debtForPeriod(ctx, nil, deviceKey, period)
}

// FleetReport reports a whole fleet for one billing period. Devices resolve
// independently in parallel; totals are summed in request order so identical
// requests always produce identical reports. Failures on one device never
// abort the others.
func (s *BillingService) FleetReport(ctx context.Context, deviceKeys []string, referenceDate time.Time) (FleetReport, error) {
	period, err := billing.PeriodForDate(referenceDate)
	if err != nil {
		return FleetReport{}, err
	}

	type outcome struct {
		report DebtReport
		err    error
	}
	outcomes := make([]outcome, len(deviceKeys))
	cache := billing.NewBoundaryCache()

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)
	for i, key := range deviceKeys {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, key string) {
			defer wg.Done()
			defer func() { <-sem }()
			report, err := s.debtForPeriod(ctx, cache, key, period)
			outcomes[i] = outcome{report: report, err: err}
		}(i, key)
	}
	wg.Wait()

	fleet := FleetReport{Period: period, TotalDebt: decimal.Zero}
	for i, out := range outcomes {
		if out.err != nil {
			fleet.Errors = append(fleet.Errors, FleetDeviceError{DeviceKey: deviceKeys[i], Err: out.err})
			continue
		}
		fleet.Devices = append(fleet.Devices, out.report)
		fleet.TotalBlackWhiteDelta += out.report.Consumption.BlackWhiteDelta
		fleet.TotalColorDelta += out.report.Consumption.ColorDelta
		fleet.TotalDebt = fleet.TotalDebt.Add(out.report.Debt.TotalDebt)
	}
	return fleet, nil
}

func (s *BillingService) reportForPeriod(ctx context.Context, cache *billing.BoundaryCache, deviceKey string, period billing.BillingPeriod) (PeriodReport, error) {
	start, err := s.resolver.ResolveBoundaryCached(ctx, cache, deviceKey, period.Start, billing.RoleStart)
	if err != nil {
		return PeriodReport{}, err
	}
	end, err := s.resolver.ResolveBoundaryCached(ctx, cache, deviceKey, period.End, billing.RoleEnd)
	if err != nil {
		return PeriodReport{}, err
	}
	return PeriodReport{
		DeviceKey:   deviceKey,
		Period:      period,
		Consumption: billing.ComputeConsumption(start, end),
	}, nil
}

func (s *BillingService) debtForPeriod(ctx context.Context, cache *billing.BoundaryCache, deviceKey string, period billing.BillingPeriod) (DebtReport, error) {
	report, err := s.reportForPeriod(ctx, cache, deviceKey, period)
	if err != nil {
		return DebtReport{}, err
	}
	pricing, err := s.pricing.PricingFor(ctx, deviceKey)
	if err != nil {
		return DebtReport{}, err
	}
	debt, err := billing.ComputeDebt(report.Consumption, pricing)
	if err != nil {
		return DebtReport{}, err
	}
	return DebtReport{PeriodReport: report, Debt: debt}, nil
}
