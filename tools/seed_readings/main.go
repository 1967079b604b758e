package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dsn           string
	deviceCount   int
	startDate     string
	days          int
	cadenceDays   int
	archiveBefore string
	currentTable  string
	archiveTable  string
	seed          int64
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or -dsn is required")
	}
	if cfg.deviceCount <= 0 {
		log.Fatal("device-count must be > 0")
	}
	if cfg.days <= 0 {
		log.Fatal("days must be > 0")
	}
	if cfg.cadenceDays <= 0 {
		log.Fatal("cadence-days must be > 0")
	}

	start, err := time.Parse("2006-01-02", cfg.startDate)
	if err != nil {
		log.Fatalf("invalid start-date: %v", err)
	}
	archiveBefore := time.Time{}
	if cfg.archiveBefore != "" {
		archiveBefore, err = time.Parse("2006-01-02", cfg.archiveBefore)
		if err != nil {
			log.Fatalf("invalid archive-before: %v", err)
		}
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(cfg.seed))

	total := 0
	for d := 0; d < cfg.deviceCount; d++ {
		deviceKey := fmt.Sprintf("AA17%08X", d)
		bw := int64(rng.Intn(5000))
		color := int64(rng.Intn(500))

		for offset := 0; offset < cfg.days; offset += cfg.cadenceDays {
			takenAt := start.AddDate(0, 0, offset).Add(time.Duration(8+rng.Intn(9)) * time.Hour)
			bw += int64(rng.Intn(400))
			color += int64(rng.Intn(40))

			table := cfg.currentTable
			if !archiveBefore.IsZero() && takenAt.Before(archiveBefore) {
				table = cfg.archiveTable
			}
			query := fmt.Sprintf(`
INSERT INTO %s (device_key, taken_at, total_black_white, total_color)
VALUES ($1, $2, $3, $4)`, table)
			if _, err := db.ExecContext(ctx, query, deviceKey, takenAt.UTC(), bw, color); err != nil {
				log.Fatalf("insert reading for %s: %v", deviceKey, err)
			}
			total++
		}
	}

	log.Printf("seeded %d readings for %d devices starting %s", total, cfg.deviceCount, start.Format("2006-01-02"))
}

func parseConfig() config {
	var cfg config
	flag.StringVar(&cfg.dsn, "dsn", envOr("PG_DSN", envOr("DATABASE_URL", "")), "postgres dsn")
	flag.IntVar(&cfg.deviceCount, "device-count", 10, "number of devices to seed")
	flag.StringVar(&cfg.startDate, "start-date", "2024-01-01", "first reading day (2006-01-02)")
	flag.IntVar(&cfg.days, "days", 90, "number of days to cover")
	flag.IntVar(&cfg.cadenceDays, "cadence-days", 3, "days between readings per device")
	flag.StringVar(&cfg.archiveBefore, "archive-before", "", "readings before this day go into the archive table")
	flag.StringVar(&cfg.currentTable, "readings-table", "meter_readings", "current readings table")
	flag.StringVar(&cfg.archiveTable, "archive-table", "meter_readings_archive", "archived readings table")
	flag.Int64Var(&cfg.seed, "seed", 1, "rng seed")
	flag.Parse()
	return cfg
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
