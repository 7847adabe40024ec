// Command report computes a dashboard snapshot for a date range and
// writes it to disk without starting the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"shoppulse/internal/config"
	"shoppulse/internal/exporter"
	"shoppulse/internal/infrastructure"
	"shoppulse/internal/orders"
	"shoppulse/internal/services"
)

const dateLayout = "2006-01-02"

func main() {
	source := flag.String("source", "", "orders CSV path or http(s) URL (defaults to the configured source)")
	from := flag.String("from", "", "range start YYYY-MM-DD (defaults to the earliest purchase date)")
	to := flag.String("to", "", "range end YYYY-MM-DD (defaults to the latest purchase date)")
	out := flag.String("out", "", "output directory (defaults to the configured export dir)")
	format := flag.String("format", "xlsx", "output format: csv | xlsx")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Dataset.SourceURI = *source
	}
	if *out != "" {
		cfg.Export.OutputDir = *out
	}
	if *format != "csv" && *format != "xlsx" {
		slog.Error("invalid format, expected csv or xlsx", "format", *format)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := run(cfg, logger, *from, *to, *format); err != nil {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, from, to, format string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Dataset.FetchTimeout)
	defer cancel()

	svc := services.NewDashboardService(orders.NewLoader(cfg.Dataset, logger), logger)
	if err := svc.Load(ctx); err != nil {
		return err
	}

	min, max, err := svc.Bounds()
	if err != nil {
		return err
	}

	start, end := min, max
	if from != "" {
		if start, err = time.Parse(dateLayout, from); err != nil {
			return fmt.Errorf("invalid -from value %q: %w", from, err)
		}
	}
	if to != "" {
		if end, err = time.Parse(dateLayout, to); err != nil {
			return fmt.Errorf("invalid -to value %q: %w", to, err)
		}
	}

	snap, err := svc.Snapshot(ctx, start, end)
	if err != nil {
		return err
	}

	exp := exporter.NewSnapshotExporter(cfg.Export)
	var path string
	if format == "csv" {
		path, err = exp.ExportCSV(snap)
	} else {
		path, err = exp.ExportExcel(snap)
	}
	if err != nil {
		return err
	}

	logger.Info("report written",
		"path", path,
		"from", snap.From.Format(dateLayout),
		"to", snap.To.Format(dateLayout),
		"total_orders", snap.TotalOrders,
		"total_revenue", snap.TotalRevenue)
	return nil
}
