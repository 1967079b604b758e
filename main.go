package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"printfleet-cloud/internal/audit"
	billingapp "printfleet-cloud/internal/billing/application"
	billing "printfleet-cloud/internal/billing/domain"
	billingpricing "printfleet-cloud/internal/billing/infrastructure/pricing"
	billinginterfaces "printfleet-cloud/internal/billing/interfaces"
	"printfleet-cloud/internal/observability/metrics"
	readingpostgres "printfleet-cloud/internal/reading/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	readingStore := readingpostgres.NewReadingStore(db,
		readingpostgres.WithCurrentTable(cfg.ReadingsTable),
		readingpostgres.WithArchiveTable(cfg.ArchiveTable),
	)
	resolver, err := billing.NewPeriodResolver(readingStore)
	if err != nil {
		logger.Fatalf("period resolver error: %v", err)
	}

	pricingSettings, err := billingapp.LoadPricingSettings()
	if err != nil {
		logger.Fatalf("pricing config error: %v", err)
	}

	var pricingProvider billingapp.PricingProvider
	if cfg.UsePricePlans {
		pricingProvider, err = billingpricing.NewPlanProvider(db, pricingSettings.Default)
	} else {
		pricingProvider, err = billingpricing.NewStaticProvider(pricingSettings.Default, pricingSettings.Devices)
	}
	if err != nil {
		logger.Fatalf("pricing provider error: %v", err)
	}

	billingService, err := billingapp.NewBillingService(resolver, pricingProvider,
		billingapp.WithFleetWorkers(cfg.FleetWorkers),
	)
	if err != nil {
		logger.Fatalf("billing service error: %v", err)
	}

	billingHandler, err := billinginterfaces.NewBillingHandler(billingService, auditRepo)
	if err != nil {
		logger.Fatalf("billing handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/billing/consumption", billingHandler)
	mux.Handle("/api/v1/billing/debt", billingHandler)
	mux.Handle("/api/v1/billing/fleet", billingHandler)
	mux.Handle("/api/v1/billing/invoice.pdf", billingHandler)
	mux.Handle("/api/v1/billing/invoice.xlsx", billingHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(mux, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL   string
	HTTPAddr      string
	ReadingsTable string
	ArchiveTable  string
	UsePricePlans bool
	FleetWorkers  int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:   getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		ReadingsTable: getenvDefault("READINGS_TABLE", "meter_readings"),
		ArchiveTable:  getenvDefault("READINGS_ARCHIVE_TABLE", "meter_readings_archive"),
		UsePricePlans: getenvDefault("PRICE_PLANS", "") == "db",
		FleetWorkers:  getenvIntDefault("FLEET_WORKERS", 8),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
