// Command reconcile recomputes billing-period consumption through the period
// resolver and compares it against a legacy billing export. The legacy system
// derived the same figures in three separate code paths that could disagree at
// edge cases; this tool is the migration check that they now agree.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	billingapp "printfleet-cloud/internal/billing/application"
	billing "printfleet-cloud/internal/billing/domain"
	billingpricing "printfleet-cloud/internal/billing/infrastructure/pricing"
	readingpostgres "printfleet-cloud/internal/reading/infrastructure/postgres"
)

type config struct {
	dsn        string
	month      string
	legacyPath string
	outDir     string
}

type legacyRow struct {
	deviceKey  string
	bwDelta    int64
	colorDelta int64
	totalDebt  decimal.Decimal
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or -dsn is required")
	}
	if cfg.legacyPath == "" {
		log.Fatal("-legacy is required")
	}
	month, err := time.Parse("2006-01", cfg.month)
	if err != nil {
		log.Fatalf("invalid month: %v", err)
	}
	// Any reference date on or after the cycle day selects the period opening
	// that month.
	reference := time.Date(month.Year(), month.Month(), billing.CycleDay, 0, 0, 0, 0, time.UTC)

	legacy, err := readLegacyExport(cfg.legacyPath)
	if err != nil {
		log.Fatalf("read legacy export: %v", err)
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	store := readingpostgres.NewReadingStore(db)
	resolver, err := billing.NewPeriodResolver(store)
	if err != nil {
		log.Fatalf("period resolver: %v", err)
	}
	settings, err := billingapp.LoadPricingSettings()
	if err != nil {
		log.Fatalf("pricing config: %v", err)
	}
	provider, err := billingpricing.NewStaticProvider(settings.Default, settings.Devices)
	if err != nil {
		log.Fatalf("pricing provider: %v", err)
	}
	service, err := billingapp.NewBillingService(resolver, provider)
	if err != nil {
		log.Fatalf("billing service: %v", err)
	}

	ctx := context.Background()
	diffs := make([][]string, 0)
	matched := 0
	for _, row := range legacy {
		report, err := service.DebtForPeriod(ctx, row.deviceKey, reference)
		if err != nil {
			diffs = append(diffs, []string{row.deviceKey, "error", err.Error(), "", ""})
			continue
		}
		bwMatch := report.Consumption.BlackWhiteDelta == row.bwDelta
		colorMatch := report.Consumption.ColorDelta == row.colorDelta
		debtMatch := report.Debt.TotalDebt.Equal(row.totalDebt)
		if bwMatch && colorMatch && debtMatch {
			matched++
			continue
		}
		diffs = append(diffs, []string{
			row.deviceKey,
			"mismatch",
			fmt.Sprintf("bw legacy=%d resolved=%d", row.bwDelta, report.Consumption.BlackWhiteDelta),
			fmt.Sprintf("color legacy=%d resolved=%d", row.colorDelta, report.Consumption.ColorDelta),
			fmt.Sprintf("debt legacy=%s resolved=%s", row.totalDebt.StringFixed(2), report.Debt.TotalDebt.StringFixed(2)),
		})
	}

	outPath := filepath.Join(cfg.outDir, "reconcile-"+cfg.month+".csv")
	if err := writeDiffs(outPath, diffs); err != nil {
		log.Fatalf("write diffs: %v", err)
	}
	log.Printf("reconciled %d devices: %d matched, %d diffs -> %s", len(legacy), matched, len(diffs), outPath)
	if len(diffs) > 0 {
		os.Exit(1)
	}
}

func parseConfig() config {
	var cfg config
	flag.StringVar(&cfg.dsn, "dsn", envOr("PG_DSN", envOr("DATABASE_URL", "")), "postgres dsn")
	flag.StringVar(&cfg.month, "month", time.Now().UTC().Format("2006-01"), "billing month (2006-01), period opens on the 20th")
	flag.StringVar(&cfg.legacyPath, "legacy", "", "legacy billing export csv: device_key,bw_delta,color_delta,total_debt")
	flag.StringVar(&cfg.outDir, "out", ".", "output directory for the diff csv")
	flag.Parse()
	return cfg
}

func readLegacyExport(path string) ([]legacyRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([]legacyRow, 0, len(records))
	for i, record := range records {
		if len(record) < 4 {
			return nil, fmt.Errorf("row %d: expected 4 columns, got %d", i+1, len(record))
		}
		if i == 0 && record[0] == "device_key" {
			continue
		}
		bw, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad bw delta: %w", i+1, err)
		}
		color, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad color delta: %w", i+1, err)
		}
		debt, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad debt: %w", i+1, err)
		}
		rows = append(rows, legacyRow{deviceKey: record[0], bwDelta: bw, colorDelta: color, totalDebt: debt})
	}
	return rows, nil
}

func writeDiffs(path string, diffs [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"device_key", "status", "bw", "color", "debt"}); err != nil {
		return err
	}
	for _, diff := range diffs {
		if err := w.Write(diff); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
