package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "printfleet_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	boundaryResolutions *prometheus.CounterVec

	reportRequests *prometheus.CounterVec
	reportLatency  *prometheus.HistogramVec

	invoiceExports *prometheus.CounterVec

	fleetDevices *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		boundaryResolutions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "boundary_resolutions_total",
				Help: "Boundary resolutions by role and outcome",
			},
			[]string{"role", "outcome"},
		)
		reportRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_requests_total",
				Help: "Billing report requests by kind and result",
			},
			[]string{"kind", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Billing report latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)
		invoiceExports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_exports_total",
				Help: "Invoice exports by format and result",
			},
			[]string{"format", "result"},
		)
		fleetDevices = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fleet_report_devices",
				Help:    "Devices per fleet report",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			boundaryResolutions,
			reportRequests,
			reportLatency,
			invoiceExports,
			fleetDevices,
		)

		registerDBMetrics(db, logger)
	})
}

// ObserveBoundaryResolution records one boundary resolution outcome.
func ObserveBoundaryResolution(role string, found bool, err error) {
	if boundaryResolutions == nil {
		return
	}
	outcome := "absent"
	switch {
	case err != nil:
		outcome = resultError
	case found:
		outcome = "resolved"
	}
	boundaryResolutions.WithLabelValues(role, outcome).Inc()
}

// ObserveReport records one billing report request.
func ObserveReport(kind string, duration time.Duration, err error) {
	if reportRequests == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	reportRequests.WithLabelValues(kind, result).Inc()
	reportLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
}

// ObserveInvoiceExport records one invoice export.
func ObserveInvoiceExport(format string, err error) {
	if invoiceExports == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	invoiceExports.WithLabelValues(format, result).Inc()
}

// ObserveFleetReport records the size of one fleet report.
func ObserveFleetReport(deviceCount int, err error) {
	if fleetDevices == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	fleetDevices.WithLabelValues(result).Observe(float64(deviceCount))
}

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	if db == nil {
		return
	}
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "meter_readings_current_rows",
			Help: "Rows in the current meter readings table",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM meter_readings")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "meter_readings_archive_rows",
			Help: "Rows in the archived meter readings table",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM meter_readings_archive")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
